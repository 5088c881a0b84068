// internal/interfaces/http/handlers/inventory.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/your-org/storefront-backend/internal/domain/inventory"
	"github.com/your-org/storefront-backend/internal/interfaces/http/response"
	"github.com/your-org/storefront-backend/internal/pkg/apperr"
)

// InventoryHandler exposes the stock ledger to the back office
type InventoryHandler struct {
	inventoryService *inventory.Service
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(inventoryService *inventory.Service) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

// GetMovements handles GET /admin/inventory/variants/:id/movements
func (h *InventoryHandler) GetMovements(c *gin.Context) {
	variantID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || variantID == 0 {
		response.Error(c, apperr.Validation("inventory.movements", "invalid variant id"))
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	movements, err := h.inventoryService.Movements(c.Request.Context(), uint(variantID), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Stock movements retrieved successfully", movements)
}

// internal/interfaces/http/handlers/guarantee.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/your-org/storefront-backend/internal/domain/guarantee"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/interfaces/http/response"
	"github.com/your-org/storefront-backend/internal/pkg/apperr"
)

// GuaranteeHandler handles money-back guarantee claims
type GuaranteeHandler struct {
	claims *guarantee.Service
}

// NewGuaranteeHandler creates a new guarantee handler
func NewGuaranteeHandler(claims *guarantee.Service) *GuaranteeHandler {
	return &GuaranteeHandler{claims: claims}
}

// FileClaim handles POST /guarantee/claims
func (h *GuaranteeHandler) FileClaim(c *gin.Context) {
	var req guarantee.FileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	claim, err := h.claims.File(c.Request.Context(), middleware.GetIdentity(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Claim submitted successfully", claim)
}

// AdminGetClaim handles GET /admin/guarantee/claims/:id
func (h *GuaranteeHandler) AdminGetClaim(c *gin.Context) {
	id, ok := claimID(c)
	if !ok {
		return
	}
	claim, err := h.claims.GetClaim(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Claim retrieved successfully", claim)
}

// AdminUpdateClaimStatus handles PUT /admin/guarantee/claims/:id/status
func (h *GuaranteeHandler) AdminUpdateClaimStatus(c *gin.Context) {
	id, ok := claimID(c)
	if !ok {
		return
	}

	var req guarantee.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	claim, err := h.claims.Transition(c.Request.Context(), id, req.Status, adminActor(c), req.Note)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Claim status updated successfully", claim)
}

func claimID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		response.Error(c, apperr.Validation("guarantee.get", "invalid claim id"))
		return 0, false
	}
	return uint(id), true
}

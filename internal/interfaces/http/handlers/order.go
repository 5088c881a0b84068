// internal/interfaces/http/handlers/order.go
package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/tracking"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/interfaces/http/response"
	"github.com/your-org/storefront-backend/internal/pkg/apperr"
)

// LookupRecorder observes tracking lookup outcomes
type LookupRecorder interface {
	TrackingLookup(result string)
}

type nopLookupRecorder struct{}

func (nopLookupRecorder) TrackingLookup(string) {}

// OrderHandler handles order read endpoints and back-office status changes
type OrderHandler struct {
	orders   *order.Service
	tracker  *tracking.Resolver
	recorder LookupRecorder
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders *order.Service, tracker *tracking.Resolver, recorder LookupRecorder) *OrderHandler {
	if recorder == nil {
		recorder = nopLookupRecorder{}
	}
	return &OrderHandler{orders: orders, tracker: tracker, recorder: recorder}
}

// GetMyOrders handles GET /orders/my
func (h *OrderHandler) GetMyOrders(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)
	page, limit := pageParams(c)

	resp, err := h.orders.GetUserOrders(c.Request.Context(), userID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Orders retrieved successfully", resp)
}

// TrackOrder handles GET /orders/track?code=...&phone=...
func (h *OrderHandler) TrackOrder(c *gin.Context) {
	summary, err := h.tracker.Lookup(c.Request.Context(), middleware.GetIdentity(c), c.Query("code"), c.Query("phone"))
	if err != nil {
		h.recorder.TrackingLookup(apperr.Code(err))
		response.Error(c, err)
		return
	}
	h.recorder.TrackingLookup("found")
	response.OK(c, "Order retrieved successfully", summary)
}

// AdminGetOrders handles GET /admin/orders
func (h *OrderHandler) AdminGetOrders(c *gin.Context) {
	var req order.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	resp, err := h.orders.GetOrders(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Orders retrieved successfully", resp)
}

// AdminGetOrder handles GET /admin/orders/:id. The id may be the numeric
// order id or an ORD- code.
func (h *OrderHandler) AdminGetOrder(c *gin.Context) {
	param := c.Param("id")

	var (
		o   *order.Order
		err error
	)
	if id, parseErr := strconv.ParseInt(param, 10, 64); parseErr == nil {
		o, err = h.orders.GetOrder(c.Request.Context(), id)
	} else {
		o, err = h.orders.GetOrderByCode(c.Request.Context(), strings.ToUpper(strings.TrimSpace(param)))
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Order retrieved successfully", o)
}

// AdminUpdateOrderStatus handles PUT /admin/orders/:id/status
func (h *OrderHandler) AdminUpdateOrderStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, apperr.Validation("order.transition", "invalid order id"))
		return
	}

	var req order.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	o, err := h.orders.Transition(c.Request.Context(), id, req.Status, adminActor(c), req.Comment)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Order status updated successfully", o)
}

func adminActor(c *gin.Context) string {
	userID, _ := middleware.GetUserIDFromContext(c)
	return fmt.Sprintf("admin:%d", userID)
}

func pageParams(c *gin.Context) (int, int) {
	page := 1
	if p, err := strconv.Atoi(c.Query("page")); err == nil && p > 0 {
		page = p
	}
	limit := 20
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}
	return page, limit
}

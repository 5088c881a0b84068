// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/checkout"
	"github.com/your-org/storefront-backend/internal/domain/pricing"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/interfaces/http/response"
)

// CheckoutHandler handles order placement and coupon previews
type CheckoutHandler struct {
	checkout *checkout.Service
	pricing  *pricing.Engine
	carts    *cart.Store
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(svc *checkout.Service, engine *pricing.Engine, carts *cart.Store) *CheckoutHandler {
	return &CheckoutHandler{checkout: svc, pricing: engine, carts: carts}
}

// ValidateCouponRequest previews a coupon. Without a subtotal the caller's
// cart subtotal is used.
type ValidateCouponRequest struct {
	Code     string `json:"code" binding:"required,max=50"`
	Subtotal *int64 `json:"subtotal" binding:"omitempty,min=0"`
}

// PlaceOrder handles POST /orders
func (h *CheckoutHandler) PlaceOrder(c *gin.Context) {
	var req checkout.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	if req.Email == "" {
		req.Email, _ = middleware.GetUserEmailFromContext(c)
	}

	o, err := h.checkout.PlaceOrder(c.Request.Context(), middleware.GetIdentity(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Order placed successfully", o)
}

// ValidateCoupon handles POST /coupons/validate
func (h *CheckoutHandler) ValidateCoupon(c *gin.Context) {
	var req ValidateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	var subtotal int64
	if req.Subtotal != nil {
		subtotal = *req.Subtotal
	} else {
		view, err := h.carts.View(c.Request.Context(), middleware.GetIdentity(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		subtotal = view.Totals.SubTotal
	}

	quote, err := h.pricing.ValidateCoupon(c.Request.Context(), nil, req.Code, subtotal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Coupon is valid", quote)
}

// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/interfaces/http/response"
)

// CartHandler handles cart endpoints
type CartHandler struct {
	store   *cart.Store
	cartCfg config.CartConfig
}

// NewCartHandler creates a new cart handler
func NewCartHandler(store *cart.Store, cartCfg config.CartConfig) *CartHandler {
	return &CartHandler{store: store, cartCfg: cartCfg}
}

// SetItemsRequest replaces the cart contents
type SetItemsRequest struct {
	Items []cart.LineInput `json:"items" binding:"max=100,dive"`
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	view, err := h.store.View(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Cart retrieved successfully", view)
}

// SetItems handles PUT /cart
func (h *CartHandler) SetItems(c *gin.Context) {
	var req SetItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	caller := middleware.GetIdentity(c)
	if _, err := h.store.SetItems(c.Request.Context(), caller, req.Items); err != nil {
		response.Error(c, err)
		return
	}

	view, err := h.store.View(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Cart updated successfully", view)
}

// MergeGuestCart handles POST /cart/merge. Called right after login with
// the guest cart token still attached.
func (h *CartHandler) MergeGuestCart(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	if _, err := h.store.Merge(c.Request.Context(), middleware.GuestTokenFromContext(c), userID); err != nil {
		response.Error(c, err)
		return
	}
	// the guest cart no longer exists
	c.SetCookie(h.cartCfg.CookieName, "", -1, "/", "", h.cartCfg.CookieSecure, true)

	view, err := h.store.View(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Cart merged successfully", view)
}

// DetachCart handles POST /cart/detach. Called on logout; the cart moves
// to a fresh guest token handed back to the client.
func (h *CartHandler) DetachCart(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	token, err := h.store.Detach(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCartToken(c, h.cartCfg, token)
	response.OK(c, "Cart detached successfully", gin.H{"cart_token": token})
}

// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/your-org/storefront-backend/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
)

// Handlers groups every API handler
type Handlers struct {
	Cart      *handlers.CartHandler
	Checkout  *handlers.CheckoutHandler
	Orders    *handlers.OrderHandler
	Guarantee *handlers.GuaranteeHandler
	Addresses *handlers.UserAddressHandler
	Products  *handlers.ProductHandler
	Inventory *handlers.InventoryHandler
}

// Guards are the per-route middleware the API needs beyond the global chain
type Guards struct {
	// Identity resolves the caller as a user or guest
	Identity gin.HandlerFunc
	// TrackingThrottle limits order tracking lookups
	TrackingThrottle gin.HandlerFunc
}

// SetupRoutes registers the storefront API on rg
func SetupRoutes(rg *gin.RouterGroup, h *Handlers, g Guards) {
	rg.Use(g.Identity)

	SetupCatalogRoutes(rg, h)
	SetupCartRoutes(rg, h)
	SetupOrderRoutes(rg, h, g)
	SetupCouponRoutes(rg, h)
	SetupGuaranteeRoutes(rg, h)
	SetupUserRoutes(rg, h)
	SetupAdminRoutes(rg, h)
}

// SetupCatalogRoutes sets up public price lookups
func SetupCatalogRoutes(rg *gin.RouterGroup, h *Handlers) {
	rg.GET("/variants/prices", h.Products.GetPrices)
}

// SetupCartRoutes sets up cart related routes
func SetupCartRoutes(rg *gin.RouterGroup, h *Handlers) {
	cart := rg.Group("/cart")
	{
		cart.GET("", h.Cart.GetCart)
		cart.PUT("", h.Cart.SetItems)

		session := cart.Group("")
		session.Use(middleware.RequireUser())
		{
			session.POST("/merge", h.Cart.MergeGuestCart)
			session.POST("/detach", h.Cart.DetachCart)
		}
	}
}

// SetupOrderRoutes sets up shopper order routes
func SetupOrderRoutes(rg *gin.RouterGroup, h *Handlers, g Guards) {
	orders := rg.Group("/orders")
	{
		orders.POST("", h.Checkout.PlaceOrder)
		orders.GET("/track", g.TrackingThrottle, h.Orders.TrackOrder)
		orders.GET("/my", middleware.RequireUser(), h.Orders.GetMyOrders)
	}
}

// SetupCouponRoutes sets up coupon preview routes
func SetupCouponRoutes(rg *gin.RouterGroup, h *Handlers) {
	rg.POST("/coupons/validate", h.Checkout.ValidateCoupon)
}

// SetupGuaranteeRoutes sets up guarantee claim routes
func SetupGuaranteeRoutes(rg *gin.RouterGroup, h *Handlers) {
	rg.POST("/guarantee/claims", h.Guarantee.FileClaim)
}

// SetupUserRoutes sets up user related routes
func SetupUserRoutes(rg *gin.RouterGroup, h *Handlers) {
	users := rg.Group("/users")
	users.Use(middleware.RequireUser())
	{
		users.GET("/addresses", h.Addresses.GetAddresses)
		users.POST("/addresses", h.Addresses.CreateAddress)
		users.GET("/addresses/:id", h.Addresses.GetAddress)
		users.PUT("/addresses/:id", h.Addresses.UpdateAddress)
		users.DELETE("/addresses/:id", h.Addresses.DeleteAddress)
		users.PUT("/addresses/:id/default", h.Addresses.SetDefaultAddress)
	}
}

// SetupAdminRoutes sets up back-office routes
func SetupAdminRoutes(rg *gin.RouterGroup, h *Handlers) {
	admin := rg.Group("/admin")
	admin.Use(middleware.AdminMiddleware())
	{
		admin.GET("/orders", h.Orders.AdminGetOrders)
		admin.GET("/orders/:id", h.Orders.AdminGetOrder)
		admin.PUT("/orders/:id/status", h.Orders.AdminUpdateOrderStatus)

		admin.GET("/guarantee/claims/:id", h.Guarantee.AdminGetClaim)
		admin.PUT("/guarantee/claims/:id/status", h.Guarantee.AdminUpdateClaimStatus)

		admin.GET("/inventory/variants/:id/movements", h.Inventory.GetMovements)
	}
}

// internal/domain/checkout/request.go
package checkout

import (
	"strings"

	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/pkg/phone"
)

// DeliveryRequest is an address typed in at checkout
type DeliveryRequest struct {
	FullName     string `json:"full_name" binding:"required,max=200"`
	Phone        string `json:"phone" binding:"required,phone"`
	AddressLine1 string `json:"address_line1" binding:"required,max=255"`
	AddressLine2 string `json:"address_line2" binding:"max=255"`
	City         string `json:"city" binding:"required,max=100"`
	State        string `json:"state" binding:"max=100"`
	PostalCode   string `json:"postal_code" binding:"max=20"`
	Country      string `json:"country" binding:"omitempty,len=2"`
}

// ItemRequest is a single variant bought directly, bypassing the cart
type ItemRequest struct {
	VariantID uint `json:"variant_id" binding:"required,min=1"`
	Quantity  int  `json:"quantity" binding:"required,min=1,max=999"`
}

// PlaceOrderRequest represents checkout input. It carries no prices.
type PlaceOrderRequest struct {
	// Exactly one of Delivery or AddressID
	Delivery  *DeliveryRequest `json:"delivery"`
	AddressID *uint            `json:"address_id"`

	// BuyNow checks out one item and leaves the cart untouched
	BuyNow *ItemRequest `json:"buy_now"`

	CouponCode string `json:"coupon_code" binding:"max=50"`
	Email      string `json:"email" binding:"omitempty,email,max=255"`
	Notes      string `json:"notes" binding:"max=1000"`
}

// toAddress copies the typed-in address. The phone is stored in E.164 so
// tracking and claims compare numbers, not formatting.
func (d *DeliveryRequest) toAddress() order.Address {
	return order.Address{
		FullName:     strings.TrimSpace(d.FullName),
		Phone:        phone.Normalize(d.Phone, d.Country),
		AddressLine1: strings.TrimSpace(d.AddressLine1),
		AddressLine2: strings.TrimSpace(d.AddressLine2),
		City:         strings.TrimSpace(d.City),
		State:        strings.TrimSpace(d.State),
		PostalCode:   strings.TrimSpace(d.PostalCode),
		Country:      strings.ToUpper(strings.TrimSpace(d.Country)),
	}
}

func fromSavedAddress(a *user.Address) order.Address {
	return order.Address{
		FullName:     a.FullName,
		Phone:        phone.Normalize(a.Phone, a.Country),
		AddressLine1: a.AddressLine1,
		AddressLine2: a.AddressLine2,
		City:         a.City,
		State:        a.State,
		PostalCode:   a.PostalCode,
		Country:      a.Country,
	}
}

// internal/domain/pricing/engine.go
package pricing

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/domain/coupon"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/pkg/apperr"
)

// Quote is the live server-side price of one variant.
type Quote struct {
	VariantID uint   `json:"variant_id"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	ListPrice int64  `json:"list_price"`
	Discount  int64  `json:"discount"`
	Price     int64  `json:"price"`
	Stock     int    `json:"stock"`
	Active    bool   `json:"active"`
}

// CouponQuote is the result of applying a coupon to a subtotal.
type CouponQuote struct {
	Code     string              `json:"code"`
	Type     coupon.DiscountType `json:"type"`
	Subtotal int64               `json:"subtotal"`
	Discount int64               `json:"discount"`
	Total    int64               `json:"total"`
}

// Engine computes prices from stored data only. Nothing the client sends
// is used as a price.
type Engine struct {
	products *product.Repository
	coupons  *coupon.Repository
	now      func() time.Time
}

func NewEngine(products *product.Repository, coupons *coupon.Repository) *Engine {
	return &Engine{products: products, coupons: coupons, now: time.Now}
}

// WithClock replaces the time source.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// PriceVariants returns the current price of each known variant. tx may be
// nil to read outside a transaction.
func (e *Engine) PriceVariants(ctx context.Context, tx *gorm.DB, ids []uint) (map[uint]Quote, error) {
	variants, err := e.products.VariantsByID(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	quotes := make(map[uint]Quote, len(variants))
	for id, v := range variants {
		quotes[id] = Quote{
			VariantID: v.ID,
			SKU:       v.SKU,
			Name:      v.Name,
			ListPrice: v.ListPrice,
			Discount:  v.Discount,
			Price:     v.EffectivePrice(),
			Stock:     v.Stock,
			Active:    v.IsActive,
		}
	}
	return quotes, nil
}

// ValidateCoupon checks a coupon against subtotal without consuming a use.
func (e *Engine) ValidateCoupon(ctx context.Context, tx *gorm.DB, code string, subtotal int64) (*CouponQuote, error) {
	if coupon.NormalizeCode(code) == "" {
		return nil, apperr.Validation("pricing.coupon", "coupon code is required")
	}
	if subtotal < 0 {
		return nil, apperr.Validation("pricing.coupon", "subtotal must not be negative")
	}

	c, err := e.coupons.FindByCode(ctx, tx, code)
	if err != nil {
		return nil, err
	}
	if err := c.CheckUsable(e.now()); err != nil {
		return nil, err
	}

	discount := c.DiscountFor(subtotal)
	return &CouponQuote{
		Code:     c.Code,
		Type:     c.Type,
		Subtotal: subtotal,
		Discount: discount,
		Total:    Total(subtotal, discount),
	}, nil
}

// Subtotal sums price x quantity. Every variant in quantities must be quoted.
func Subtotal(quotes map[uint]Quote, quantities map[uint]int) (int64, error) {
	var subtotal int64
	for id, qty := range quantities {
		q, ok := quotes[id]
		if !ok {
			return 0, fmt.Errorf("variant %d has no price", id)
		}
		subtotal += q.Price * int64(qty)
	}
	return subtotal, nil
}

// Total is subtotal minus discount, floored at zero.
func Total(subtotal, discount int64) int64 {
	if t := subtotal - discount; t > 0 {
		return t
	}
	return 0
}

// internal/domain/coupon/entity.go
package coupon

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/your-org/storefront-backend/internal/pkg/apperr"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountPercentage takes Value percent off the subtotal.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed takes Value minor units off, capped at the subtotal.
	DiscountFixed DiscountType = "fixed"
)

var hundred = decimal.NewFromInt(100)

// Coupon is a redeemable discount code. UsedCount never exceeds MaxUses;
// the bound is enforced by a conditional update at checkout.
type Coupon struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Code        string          `gorm:"uniqueIndex;not null;size:50" json:"code"`
	Description string          `gorm:"size:255" json:"description"`
	Type        DiscountType    `gorm:"not null;size:20" json:"type"`
	Value       decimal.Decimal `gorm:"type:numeric(12,4);not null" json:"value"`
	StartsAt    *time.Time      `json:"starts_at,omitempty"`
	ExpiresAt   *time.Time      `json:"expires_at,omitempty"`
	MaxUses     *int            `json:"max_uses,omitempty"` // nil means unlimited
	UsedCount   int             `gorm:"not null;default:0" json:"used_count"`
	IsActive    bool            `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (Coupon) TableName() string { return "coupons" }

// NormalizeCode upper-cases and trims a shopper supplied code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CheckUsable reports why the coupon cannot be applied at now, if at all.
func (c *Coupon) CheckUsable(now time.Time) error {
	const op = "coupon.check"
	if !c.IsActive {
		return apperr.CouponInvalid(op, apperr.ReasonNotFound)
	}
	if c.StartsAt != nil && now.Before(*c.StartsAt) {
		return apperr.CouponInvalid(op, apperr.ReasonExpired)
	}
	if c.ExpiresAt != nil && !now.Before(*c.ExpiresAt) {
		return apperr.CouponInvalid(op, apperr.ReasonExpired)
	}
	if c.MaxUses != nil && c.UsedCount >= *c.MaxUses {
		return apperr.CouponInvalid(op, apperr.ReasonMaxUsesReached)
	}
	return nil
}

// DiscountFor computes the discount on subtotal, floored to whole minor
// units and never larger than subtotal.
func (c *Coupon) DiscountFor(subtotal int64) int64 {
	if subtotal <= 0 || c.Value.IsNegative() {
		return 0
	}

	var amount int64
	switch c.Type {
	case DiscountPercentage:
		amount = decimal.NewFromInt(subtotal).Mul(c.Value).Div(hundred).Floor().IntPart()
	case DiscountFixed:
		amount = c.Value.Floor().IntPart()
	}

	if amount > subtotal {
		return subtotal
	}
	if amount < 0 {
		return 0
	}
	return amount
}

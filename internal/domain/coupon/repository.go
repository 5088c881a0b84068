// internal/domain/coupon/repository.go
package coupon

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/pkg/apperr"
)

// Repository reads and redeems coupons.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByCode loads a coupon by its normalized code. A missing coupon is
// reported as CouponInvalid{not_found}.
func (r *Repository) FindByCode(ctx context.Context, tx *gorm.DB, code string) (*Coupon, error) {
	if tx == nil {
		tx = r.db
	}
	var c Coupon
	err := tx.WithContext(ctx).Where("code = ?", NormalizeCode(code)).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.CouponInvalid("coupon.find", apperr.ReasonNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load coupon: %w", err)
	}
	return &c, nil
}

// Redeem consumes one use. The update only matches while uses remain, so
// concurrent redemptions can never push used_count past max_uses.
func (r *Repository) Redeem(ctx context.Context, tx *gorm.DB, code string) error {
	code = NormalizeCode(code)
	result := tx.WithContext(ctx).Model(&Coupon{}).
		Where("code = ? AND is_active = ? AND (max_uses IS NULL OR used_count < max_uses)", code, true).
		UpdateColumn("used_count", gorm.Expr("used_count + ?", 1))
	if result.Error != nil {
		return fmt.Errorf("failed to redeem coupon: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.CouponExhausted("coupon.redeem", code)
	}
	return nil
}

// Create stores a new coupon. Used by seeding and tests.
func (r *Repository) Create(ctx context.Context, c *Coupon) error {
	c.Code = NormalizeCode(c.Code)
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("failed to create coupon: %w", err)
	}
	return nil
}

// internal/domain/order/repository.go
package order

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Insert persists a new order with its items and the initial history row.
// Must run inside the checkout transaction.
func (s *Service) Insert(ctx context.Context, tx *gorm.DB, o *Order, actor string) error {
	now := time.Now().UTC()
	o.Status = StatusPendingConfirmation
	o.CreatedAt = now
	o.UpdatedAt = now
	if o.PaymentMethod == "" {
		o.PaymentMethod = PaymentMethodCOD
	}

	if err := tx.WithContext(ctx).Omit("StatusHistory").Create(o).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	if err := appendHistory(tx.WithContext(ctx), o.ID, "", StatusPendingConfirmation, actor, "order placed", now); err != nil {
		return err
	}
	o.StatusHistory = []StatusHistory{{
		OrderID:   o.ID,
		ToStatus:  StatusPendingConfirmation,
		Actor:     actor,
		Comment:   "order placed",
		CreatedAt: now,
	}}
	return nil
}

// CodeTaken checks whether an order code is already used
func (s *Service) CodeTaken(ctx context.Context, tx *gorm.DB, code string) (bool, error) {
	return exists(ctx, tx, "code = ?", code)
}

// TrackingCodeTaken checks whether a tracking code is already used
func (s *Service) TrackingCodeTaken(ctx context.Context, tx *gorm.DB, code string) (bool, error) {
	return exists(ctx, tx, "tracking_code = ?", code)
}

func exists(ctx context.Context, tx *gorm.DB, where string, arg interface{}) (bool, error) {
	var count int64
	if err := tx.WithContext(ctx).Model(&Order{}).Where(where, arg).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check order uniqueness: %w", err)
	}
	return count > 0, nil
}

// internal/domain/order/state_machine.go
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/domain/inventory"
	"github.com/your-org/storefront-backend/internal/pkg/apperr"
)

// TransitionRequest asks to move an order to a new status
type TransitionRequest struct {
	Status  Status `json:"status" binding:"required"`
	Comment string `json:"comment" binding:"max=1000"`
}

// Transition moves an order along the status table. The status update is
// a compare-and-swap on the status read inside the same transaction, and a
// history row is written with it. Cancelling returns the stock.
func (s *Service) Transition(ctx context.Context, orderID int64, to Status, actor, comment string) (*Order, error) {
	const op = "order.transition"
	if !to.Valid() {
		return nil, apperr.Validation(op, "unknown status %q", to)
	}

	var (
		updated *Order
		from    Status
	)
	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		var o Order
		err := tx.Preload("Items").First(&o, "id = ?", orderID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(op)
		}
		if err != nil {
			return fmt.Errorf("failed to load order: %w", err)
		}

		from = o.Status
		if !CanTransition(from, to) {
			return apperr.InvalidTransition(op, string(from), string(to))
		}

		now := time.Now().UTC()
		result := tx.Model(&Order{}).
			Where("id = ? AND status = ?", o.ID, from).
			Updates(map[string]interface{}{"status": to, "updated_at": now})
		if result.Error != nil {
			return fmt.Errorf("failed to update order status: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			// another writer moved the order first
			return apperr.InvalidTransition(op, string(from), string(to))
		}

		if err := appendHistory(tx, o.ID, from, to, actor, comment, now); err != nil {
			return err
		}

		if to == StatusCancelled {
			if err := s.restoreInventory(ctx, tx, &o, actor); err != nil {
				return err
			}
		}

		o.Status = to
		o.UpdatedAt = now
		updated = &o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"order_id": updated.ID,
		"code":     updated.Code,
		"from":     from,
		"to":       to,
		"actor":    actor,
	}).Info("Order status changed")

	s.notifier.OrderStatusChanged(ctx, updated, from)
	return updated, nil
}

// restoreInventory returns every line's quantity to stock. Coupon uses are
// not given back.
func (s *Service) restoreInventory(ctx context.Context, tx *gorm.DB, o *Order, actor string) error {
	for _, item := range o.Items {
		ref := inventory.Reference{Type: "order", ID: o.ID, Actor: actor}
		if err := s.inventory.Restock(ctx, tx, item.VariantID, item.Quantity, inventory.ReasonCancellation, ref); err != nil {
			return fmt.Errorf("failed to restore inventory: %w", err)
		}
	}
	return nil
}

func appendHistory(tx *gorm.DB, orderID int64, from, to Status, actor, comment string, at time.Time) error {
	h := StatusHistory{
		OrderID:    orderID,
		FromStatus: from,
		ToStatus:   to,
		Actor:      actor,
		Comment:    comment,
		CreatedAt:  at,
	}
	if err := tx.Create(&h).Error; err != nil {
		return fmt.Errorf("failed to create status history: %w", err)
	}
	return nil
}

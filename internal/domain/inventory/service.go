// internal/domain/inventory/service.go
package inventory

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/pkg/apperr"
)

const lowStockThreshold = 5

// Service moves variant stock. All writes take the caller's transaction.
type Service struct {
	db     *gorm.DB
	logger logrus.FieldLogger
}

func NewService(db *gorm.DB, logger logrus.FieldLogger) *Service {
	return &Service{db: db, logger: logger}
}

// Decrement removes qty units of a variant. The update only matches rows
// that still hold enough stock, so stock can never go negative even when
// two transactions race for the last unit.
func (s *Service) Decrement(ctx context.Context, tx *gorm.DB, variantID uint, qty int, ref Reference) error {
	const op = "inventory.decrement"
	if qty <= 0 {
		return apperr.Validation(op, "quantity must be positive")
	}

	result := tx.WithContext(ctx).Model(&product.Variant{}).
		Where("id = ? AND stock >= ?", variantID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if result.Error != nil {
		return fmt.Errorf("failed to decrement stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.OutOfStock(op, variantID)
	}

	newQty, err := s.currentStock(ctx, tx, variantID)
	if err != nil {
		return err
	}
	if newQty <= lowStockThreshold {
		s.logger.WithFields(logrus.Fields{
			"variant_id": variantID,
			"stock":      newQty,
		}).Warn("Variant stock is low")
	}

	return s.record(ctx, tx, Movement{
		VariantID:        variantID,
		MovementType:     MovementTypeOutbound,
		Reason:           ReasonSale,
		Quantity:         qty,
		PreviousQuantity: newQty + qty,
		NewQuantity:      newQty,
		ReferenceType:    ref.Type,
		ReferenceID:      ref.ID,
		Actor:            ref.Actor,
	})
}

// Restock returns qty units of a variant, e.g. when an order is cancelled.
func (s *Service) Restock(ctx context.Context, tx *gorm.DB, variantID uint, qty int, reason MovementReason, ref Reference) error {
	if qty <= 0 {
		return apperr.Validation("inventory.restock", "quantity must be positive")
	}

	result := tx.WithContext(ctx).Model(&product.Variant{}).
		Where("id = ?", variantID).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty))
	if result.Error != nil {
		return fmt.Errorf("failed to restock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// variant removed from the catalog since the sale
		s.logger.WithField("variant_id", variantID).Warn("Skipping restock of unknown variant")
		return nil
	}

	newQty, err := s.currentStock(ctx, tx, variantID)
	if err != nil {
		return err
	}

	return s.record(ctx, tx, Movement{
		VariantID:        variantID,
		MovementType:     MovementTypeInbound,
		Reason:           reason,
		Quantity:         qty,
		PreviousQuantity: newQty - qty,
		NewQuantity:      newQty,
		ReferenceType:    ref.Type,
		ReferenceID:      ref.ID,
		Actor:            ref.Actor,
	})
}

// Movements lists the ledger for a variant, newest first.
func (s *Service) Movements(ctx context.Context, variantID uint, limit int) ([]Movement, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var movements []Movement
	err := s.db.WithContext(ctx).
		Where("variant_id = ?", variantID).
		Order("id DESC").
		Limit(limit).
		Find(&movements).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load movements: %w", err)
	}
	return movements, nil
}

func (s *Service) currentStock(ctx context.Context, tx *gorm.DB, variantID uint) (int, error) {
	var stocks []int
	err := tx.WithContext(ctx).Model(&product.Variant{}).
		Where("id = ?", variantID).
		Pluck("stock", &stocks).Error
	if err != nil {
		return 0, fmt.Errorf("failed to read stock: %w", err)
	}
	if len(stocks) == 0 {
		return 0, fmt.Errorf("variant %d disappeared during stock update", variantID)
	}
	return stocks[0], nil
}

func (s *Service) record(ctx context.Context, tx *gorm.DB, m Movement) error {
	if err := tx.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("failed to record inventory movement: %w", err)
	}
	return nil
}

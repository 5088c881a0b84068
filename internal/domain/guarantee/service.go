// internal/domain/guarantee/service.go
package guarantee

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/domain/identity"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/uow"
	"github.com/your-org/storefront-backend/internal/pkg/apperr"
	"github.com/your-org/storefront-backend/internal/pkg/phone"
)

// FileRequest represents a shopper's claim submission
type FileRequest struct {
	OrderCode string `json:"order_code" binding:"required,ordercode"`
	// Phone proves ownership for guest orders
	Phone  string `json:"phone" binding:"omitempty,phone"`
	Reason string `json:"reason" binding:"required,min=10,max=2000"`
}

// TransitionRequest represents a back-office claim decision
type TransitionRequest struct {
	Status Status `json:"status" binding:"required"`
	Note   string `json:"note" binding:"max=2000"`
}

// Service runs the money-back guarantee workflow
type Service struct {
	db     *gorm.DB
	uow    uow.Runner
	logger logrus.FieldLogger
}

func NewService(db *gorm.DB, runner uow.Runner, logger logrus.FieldLogger) *Service {
	return &Service{db: db, uow: runner, logger: logger}
}

// File opens a claim on an order the caller owns. The order must be
// DELIVERED, PAID or COMPLETED and must not already carry a live claim.
func (s *Service) File(ctx context.Context, caller identity.Identity, req *FileRequest) (*Claim, error) {
	const op = "guarantee.file"
	if err := caller.Validate(); err != nil {
		return nil, apperr.Wrap(err, apperr.EUNAUTHORIZED, op, "caller identity required")
	}

	var claim *Claim
	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		o, err := s.ownedOrder(tx, caller, req)
		if err != nil {
			return err
		}

		if !o.IsClaimable() {
			return apperr.ClaimNotEligible(op, fmt.Sprintf("orders in status %s cannot be claimed", o.Status))
		}

		var live int64
		err = tx.Model(&Claim{}).
			Where("order_id = ? AND status <> ?", o.ID, StatusRejected).
			Count(&live).Error
		if err != nil {
			return fmt.Errorf("failed to check existing claims: %w", err)
		}
		if live > 0 {
			return apperr.ClaimNotEligible(op, "a claim is already open for this order")
		}

		now := time.Now().UTC()
		c := &Claim{
			OrderID:   o.ID,
			OrderCode: o.Code,
			Status:    StatusSubmitted,
			Reason:    req.Reason,
			FiledBy:   caller.String(),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Omit("History").Create(c).Error; err != nil {
			if uow.IsUniqueViolation(err) {
				return apperr.ClaimNotEligible(op, "a claim is already open for this order")
			}
			return fmt.Errorf("failed to create claim: %w", err)
		}
		if err := appendHistory(tx, c.ID, "", StatusSubmitted, caller.String(), "", now); err != nil {
			return err
		}
		claim = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"claim_id": claim.ID,
		"order":    claim.OrderCode,
	}).Info("Guarantee claim filed")
	return claim, nil
}

// Transition applies a back-office decision to a claim
func (s *Service) Transition(ctx context.Context, claimID uint, to Status, actor, note string) (*Claim, error) {
	const op = "guarantee.transition"
	if !to.Valid() {
		return nil, apperr.Validation(op, "unknown status %q", to)
	}

	var claim *Claim
	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		var c Claim
		err := tx.First(&c, claimID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(op)
		}
		if err != nil {
			return fmt.Errorf("failed to load claim: %w", err)
		}

		from := c.Status
		if !CanTransition(from, to) {
			return apperr.InvalidTransition(op, string(from), string(to))
		}

		now := time.Now().UTC()
		updates := map[string]interface{}{"status": to, "updated_at": now}
		if note != "" {
			updates["resolution"] = note
		}
		result := tx.Model(&Claim{}).Where("id = ? AND status = ?", c.ID, from).Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("failed to update claim: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperr.InvalidTransition(op, string(from), string(to))
		}
		if err := appendHistory(tx, c.ID, from, to, actor, note, now); err != nil {
			return err
		}

		c.Status = to
		c.UpdatedAt = now
		if note != "" {
			c.Resolution = note
		}
		claim = &c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}

// GetClaim loads a claim with its history
func (s *Service) GetClaim(ctx context.Context, id uint) (*Claim, error) {
	var c Claim
	err := s.db.WithContext(ctx).
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("guarantee.get")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}
	return &c, nil
}

// ownedOrder loads the order named in req if caller owns it. Ownership
// failures look the same as a missing order.
func (s *Service) ownedOrder(tx *gorm.DB, caller identity.Identity, req *FileRequest) (*order.Order, error) {
	const op = "guarantee.file"
	var o order.Order
	err := tx.Where("code = ?", req.OrderCode).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(op)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	switch {
	case caller.IsUser():
		if o.UserID == nil || *o.UserID != caller.UserID() {
			return nil, apperr.NotFound(op)
		}
	default:
		if o.UserID != nil || !phone.Match(o.Delivery.Phone, req.Phone, o.Delivery.Country) {
			return nil, apperr.NotFound(op)
		}
	}
	return &o, nil
}

func appendHistory(tx *gorm.DB, claimID uint, from, to Status, actor, note string, at time.Time) error {
	h := ClaimHistory{
		ClaimID:    claimID,
		FromStatus: from,
		ToStatus:   to,
		Actor:      actor,
		Note:       note,
		CreatedAt:  at,
	}
	if err := tx.Create(&h).Error; err != nil {
		return fmt.Errorf("failed to create claim history: %w", err)
	}
	return nil
}

// internal/domain/cart/store.go
package cart

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ecodeclub/ekit/slice"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/your-org/storefront-backend/internal/domain/identity"
	"github.com/your-org/storefront-backend/internal/domain/pricing"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/uow"
	"github.com/your-org/storefront-backend/internal/pkg/apperr"
)

// MaxLineQuantity caps a single line
const MaxLineQuantity = 999

var errGuestCartGone = errors.New("guest cart already merged")

// Store persists carts keyed by guest token or user id.
type Store struct {
	db      *gorm.DB
	uow     uow.Runner
	pricing *pricing.Engine
	logger  logrus.FieldLogger
}

func NewStore(db *gorm.DB, runner uow.Runner, engine *pricing.Engine, logger logrus.FieldLogger) *Store {
	return &Store{db: db, uow: runner, pricing: engine, logger: logger}
}

// Resolve returns the caller's cart, creating it on first use.
func (s *Store) Resolve(ctx context.Context, id identity.Identity) (*Cart, error) {
	if err := id.Validate(); err != nil {
		return nil, apperr.Wrap(err, apperr.EUNAUTHORIZED, "cart.resolve", "caller identity required")
	}
	return s.findOrCreate(s.db.WithContext(ctx), id)
}

// FindForUpdate loads the caller's cart through tx without creating one.
// Returns nil when the caller has no cart.
func (s *Store) FindForUpdate(ctx context.Context, tx *gorm.DB, id identity.Identity) (*Cart, error) {
	c, err := find(tx.WithContext(ctx), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return c, err
}

// SetItems replaces the whole line set. Duplicate variants are summed and
// lines whose quantity ends up <= 0 are dropped. The returned cart is read
// back from storage.
func (s *Store) SetItems(ctx context.Context, id identity.Identity, lines []LineInput) (*Cart, error) {
	const op = "cart.set_items"
	if err := id.Validate(); err != nil {
		return nil, apperr.Wrap(err, apperr.EUNAUTHORIZED, op, "caller identity required")
	}

	wanted := make(map[uint]int, len(lines))
	for _, l := range lines {
		if l.VariantID == 0 {
			return nil, apperr.Validation(op, "variant_id is required")
		}
		wanted[l.VariantID] += l.Quantity
	}
	for vid, qty := range wanted {
		if qty <= 0 {
			delete(wanted, vid)
			continue
		}
		if qty > MaxLineQuantity {
			return nil, apperr.Validation(op, "quantity for variant %d exceeds %d", vid, MaxLineQuantity)
		}
	}

	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		c, err := s.findOrCreate(tx, id)
		if err != nil {
			return err
		}

		if len(wanted) > 0 {
			quotes, err := s.pricing.PriceVariants(ctx, tx, keys(wanted))
			if err != nil {
				return err
			}
			for vid := range wanted {
				q, ok := quotes[vid]
				if !ok || !q.Active {
					return apperr.Validation(op, "variant %d is not available", vid)
				}
			}
		}

		if err := tx.Where("cart_id = ?", c.ID).Delete(&CartLine{}).Error; err != nil {
			return fmt.Errorf("failed to clear cart lines: %w", err)
		}
		if len(wanted) > 0 {
			newLines := make([]CartLine, 0, len(wanted))
			for _, vid := range keys(wanted) {
				newLines = append(newLines, CartLine{CartID: c.ID, VariantID: vid, Quantity: wanted[vid]})
			}
			if err := tx.Create(&newLines).Error; err != nil {
				return fmt.Errorf("failed to save cart lines: %w", err)
			}
		}
		return tx.Model(&Cart{}).Where("id = ?", c.ID).UpdateColumn("updated_at", time.Now().UTC()).Error
	})
	if err != nil {
		return nil, err
	}

	c, err := find(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload cart: %w", err)
	}
	return c, nil
}

// View renders the cart with live prices. Lines for variants that no longer
// exist or are inactive are flagged and left out of the subtotal.
func (s *Store) View(ctx context.Context, id identity.Identity) (*View, error) {
	c, err := s.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	ids := slice.Map(c.Lines, func(_ int, l CartLine) uint { return l.VariantID })
	quotes, err := s.pricing.PriceVariants(ctx, nil, ids)
	if err != nil {
		return nil, err
	}

	view := &View{CartID: c.ID, Lines: make([]ViewLine, 0, len(c.Lines))}
	available := make(map[uint]int, len(c.Lines))
	for _, l := range c.Lines {
		vl := ViewLine{VariantID: l.VariantID, Quantity: l.Quantity}
		if q, ok := quotes[l.VariantID]; ok && q.Active {
			vl.SKU = q.SKU
			vl.Name = q.Name
			vl.UnitPrice = q.Price
			vl.ListPrice = q.ListPrice
			vl.LineTotal = q.Price * int64(l.Quantity)
			vl.InStock = q.Stock >= l.Quantity
			vl.Available = true

			view.Totals.ItemCount++
			view.Totals.TotalQuantity += l.Quantity
			available[l.VariantID] += l.Quantity
		}
		view.Lines = append(view.Lines, vl)
	}
	if view.Totals.SubTotal, err = pricing.Subtotal(quotes, available); err != nil {
		return nil, err
	}
	return view, nil
}

// Merge folds the guest cart into the user's cart and deletes it. Running
// the same merge twice is a no-op because the guest cart no longer exists.
// Merged quantities are capped at MaxLineQuantity.
func (s *Store) Merge(ctx context.Context, guestToken string, userID uint) (*Cart, error) {
	const op = "cart.merge"
	if userID == 0 {
		return nil, apperr.Errorf(apperr.EUNAUTHORIZED, op, "authentication required")
	}
	user := identity.User(userID)

	if guestToken != "" {
		merged := 0
		err := s.uow.Do(ctx, func(tx *gorm.DB) error {
			merged = 0
			g, err := find(tx, identity.Guest(guestToken))
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			if err != nil {
				return err
			}

			// claim the guest cart first; a concurrent merge of the same
			// token blocks here and then finds nothing to delete
			if err := tx.Where("cart_id = ?", g.ID).Delete(&CartLine{}).Error; err != nil {
				return fmt.Errorf("failed to delete guest cart lines: %w", err)
			}
			del := tx.Where("id = ?", g.ID).Delete(&Cart{})
			if del.Error != nil {
				return fmt.Errorf("failed to delete guest cart: %w", del.Error)
			}
			if del.RowsAffected == 0 {
				return errGuestCartGone
			}

			u, err := s.findOrCreate(tx, user)
			if err != nil {
				return err
			}

			for _, gl := range g.Lines {
				res := tx.Model(&CartLine{}).
					Where("cart_id = ? AND variant_id = ?", u.ID, gl.VariantID).
					UpdateColumn("quantity", gorm.Expr(
						"CASE WHEN quantity + ? > ? THEN ? ELSE quantity + ? END",
						gl.Quantity, MaxLineQuantity, MaxLineQuantity, gl.Quantity,
					))
				if res.Error != nil {
					return fmt.Errorf("failed to merge cart line: %w", res.Error)
				}
				if res.RowsAffected == 0 {
					line := CartLine{CartID: u.ID, VariantID: gl.VariantID, Quantity: min(gl.Quantity, MaxLineQuantity)}
					if err := tx.Create(&line).Error; err != nil {
						return fmt.Errorf("failed to add merged cart line: %w", err)
					}
				}
				merged++
			}
			return nil
		})
		if err != nil && !errors.Is(err, errGuestCartGone) {
			return nil, err
		}
		if merged > 0 {
			s.logger.WithFields(logrus.Fields{
				"user_id": userID,
				"lines":   merged,
			}).Info("Merged guest cart")
		}
	}

	return s.Resolve(ctx, user)
}

// Detach hands the user's cart to a fresh guest token on logout, so the
// shopper keeps their items without staying signed in.
func (s *Store) Detach(ctx context.Context, userID uint) (string, error) {
	if userID == 0 {
		return "", apperr.Errorf(apperr.EUNAUTHORIZED, "cart.detach", "authentication required")
	}
	token := identity.NewGuestToken()
	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		return tx.Model(&Cart{}).
			Where("user_id = ?", userID).
			Updates(map[string]interface{}{
				"guest_token": token,
				"user_id":     nil,
				"updated_at":  time.Now().UTC(),
			}).Error
	})
	if err != nil {
		return "", fmt.Errorf("failed to detach cart: %w", err)
	}
	return token, nil
}

// Clear empties a cart inside the caller's transaction
func (s *Store) Clear(ctx context.Context, tx *gorm.DB, cartID uint) error {
	if err := tx.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&CartLine{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (s *Store) findOrCreate(db *gorm.DB, id identity.Identity) (*Cart, error) {
	c, err := find(db, id)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	c = &Cart{}
	if id.IsGuest() {
		token := id.GuestToken()
		c.GuestToken = &token
	} else {
		uid := id.UserID()
		c.UserID = &uid
	}
	// a concurrent first access may win the unique index; read back either way
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Omit("Lines").Create(c).Error; err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}
	return find(db, id)
}

func find(db *gorm.DB, id identity.Identity) (*Cart, error) {
	query := db.Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("variant_id ASC") })
	if id.IsGuest() {
		query = query.Where("guest_token = ?", id.GuestToken())
	} else {
		query = query.Where("user_id = ?", id.UserID())
	}

	var c Cart
	if err := query.First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func keys(m map[uint]int) []uint {
	out := make([]uint, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

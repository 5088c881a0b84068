// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/coupon"
	"github.com/your-org/storefront-backend/internal/domain/identity"
	"github.com/your-org/storefront-backend/internal/domain/inventory"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/pricing"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/uow"
	"github.com/your-org/storefront-backend/internal/pkg/apperr"
	"github.com/your-org/storefront-backend/internal/pkg/phone"
)

// Recorder observes checkout outcomes
type Recorder interface {
	CheckoutSucceeded(total int64, guest bool)
	CheckoutFailed(reason string)
}

type nopRecorder struct{}

func (nopRecorder) CheckoutSucceeded(int64, bool) {}
func (nopRecorder) CheckoutFailed(string)         {}

// Deps groups the collaborators of the checkout service
type Deps struct {
	UoW       uow.Runner
	Carts     *cart.Store
	Pricing   *pricing.Engine
	Coupons   *coupon.Repository
	Orders    *order.Service
	Inventory *inventory.Service
	Addresses *user.AddressService
	IDs       *snowflake.Node
	Notifier  order.Notifier
	Recorder  Recorder
	Logger    logrus.FieldLogger

	// CodeAttempts bounds order/tracking code regeneration on collision
	CodeAttempts int
}

// Service turns a cart into an order. It is the only writer of orders,
// order items, stock decrements and coupon redemptions.
type Service struct {
	Deps
}

func NewService(deps Deps) *Service {
	if deps.Notifier == nil {
		deps.Notifier = order.NopNotifier{}
	}
	if deps.Recorder == nil {
		deps.Recorder = nopRecorder{}
	}
	if deps.CodeAttempts < 1 {
		deps.CodeAttempts = 5
	}
	return &Service{Deps: deps}
}

type line struct {
	variantID uint
	quantity  int
}

// PlaceOrder runs checkout for caller. Prices, stock and coupon state are
// re-read inside one transaction; either every effect commits or none does.
func (s *Service) PlaceOrder(ctx context.Context, caller identity.Identity, req *PlaceOrderRequest) (*order.Order, error) {
	const op = "checkout.place"

	o, err := s.placeOrder(ctx, caller, req)
	if err != nil {
		reason := apperr.Code(err)
		s.Recorder.CheckoutFailed(reason)
		if reason == apperr.EINTERNAL {
			s.Logger.WithFields(logrus.Fields{
				"op":     op,
				"caller": caller.String(),
				"error":  err.Error(),
			}).Error("Checkout failed")
		}
		return nil, err
	}

	s.Logger.WithFields(logrus.Fields{
		"order_id": o.ID,
		"code":     o.Code,
		"total":    o.Total,
		"items":    len(o.Items),
		"caller":   caller.String(),
	}).Info("Order placed")

	s.Recorder.CheckoutSucceeded(o.Total, o.IsGuest())
	s.Notifier.OrderPlaced(ctx, o)
	return o, nil
}

func (s *Service) placeOrder(ctx context.Context, caller identity.Identity, req *PlaceOrderRequest) (*order.Order, error) {
	const op = "checkout.place"
	if err := caller.Validate(); err != nil {
		return nil, apperr.Wrap(err, apperr.EUNAUTHORIZED, op, "caller identity required")
	}
	if err := validate(caller, req); err != nil {
		return nil, err
	}

	var placed *order.Order
	err := s.UoW.Do(ctx, func(tx *gorm.DB) error {
		placed = nil

		lines, cartID, err := s.collectLines(ctx, tx, caller, req)
		if err != nil {
			return err
		}

		delivery, err := s.resolveDelivery(ctx, tx, caller, req)
		if err != nil {
			return err
		}

		ids := make([]uint, len(lines))
		for i, l := range lines {
			ids[i] = l.variantID
		}
		quotes, err := s.Pricing.PriceVariants(ctx, tx, ids)
		if err != nil {
			return err
		}

		items := make([]order.OrderItem, 0, len(lines))
		quantities := make(map[uint]int, len(lines))
		for _, l := range lines {
			q, ok := quotes[l.variantID]
			if !ok || !q.Active {
				return apperr.Validation(op, "variant %d is not available", l.variantID)
			}
			if q.Stock < l.quantity {
				return apperr.OutOfStock(op, l.variantID)
			}
			quantities[l.variantID] = l.quantity
			items = append(items, order.OrderItem{
				VariantID: l.variantID,
				SKU:       q.SKU,
				Name:      q.Name,
				Quantity:  l.quantity,
				UnitPrice: q.Price,
				LineTotal: q.Price * int64(l.quantity),
			})
		}
		subtotal, err := pricing.Subtotal(quotes, quantities)
		if err != nil {
			return err
		}

		var discount int64
		couponCode := coupon.NormalizeCode(req.CouponCode)
		if couponCode != "" {
			quote, err := s.Pricing.ValidateCoupon(ctx, tx, couponCode, subtotal)
			if err != nil {
				return err
			}
			if err := s.Coupons.Redeem(ctx, tx, couponCode); err != nil {
				return err
			}
			discount = quote.Discount
		}

		o := &order.Order{
			ID:             s.IDs.Generate().Int64(),
			Subtotal:       subtotal,
			DiscountAmount: discount,
			Total:          pricing.Total(subtotal, discount),
			CouponCode:     couponCode,
			PaymentMethod:  order.PaymentMethodCOD,
			Delivery:       delivery,
			Notes:          strings.TrimSpace(req.Notes),
			Items:          items,
			Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		}
		if caller.IsUser() {
			uid := caller.UserID()
			o.UserID = &uid
		}

		if err := s.assignCodes(ctx, tx, o); err != nil {
			return err
		}
		if err := s.Orders.Insert(ctx, tx, o, caller.String()); err != nil {
			return err
		}

		ref := inventory.Reference{Type: "order", ID: o.ID, Actor: caller.String()}
		for _, l := range lines {
			if err := s.Inventory.Decrement(ctx, tx, l.variantID, l.quantity, ref); err != nil {
				return err
			}
		}

		if cartID != 0 {
			if err := s.Carts.Clear(ctx, tx, cartID); err != nil {
				return err
			}
		}

		placed = o
		return nil
	})
	if errors.Is(err, uow.ErrContention) {
		return nil, s.settle(ctx, caller, req, err)
	}
	if err != nil {
		return nil, err
	}
	return placed, nil
}

// settle explains a checkout that lost every attempt to concurrent writers.
// It re-reads stock and coupon state outside a transaction and returns the
// error a fresh attempt would hit, or a retryable conflict when the order
// could still succeed.
func (s *Service) settle(ctx context.Context, caller identity.Identity, req *PlaceOrderRequest, cause error) error {
	const op = "checkout.place"
	conflict := apperr.Wrap(cause, apperr.ECONFLICT, op, "checkout conflicted with other orders, please retry")

	wanted := make(map[uint]int)
	if req.BuyNow != nil {
		wanted[req.BuyNow.VariantID] = req.BuyNow.Quantity
	} else {
		view, err := s.Carts.View(ctx, caller)
		if err != nil {
			return conflict
		}
		for _, l := range view.Lines {
			wanted[l.VariantID] += l.Quantity
		}
	}

	ids := make([]uint, 0, len(wanted))
	for vid := range wanted {
		ids = append(ids, vid)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	quotes, err := s.Pricing.PriceVariants(ctx, nil, ids)
	if err != nil {
		return conflict
	}
	for _, vid := range ids {
		if q, ok := quotes[vid]; ok && q.Stock < wanted[vid] {
			return apperr.OutOfStock(op, vid)
		}
	}

	if code := coupon.NormalizeCode(req.CouponCode); code != "" {
		if subtotal, err := pricing.Subtotal(quotes, wanted); err == nil {
			if _, err := s.Pricing.ValidateCoupon(ctx, nil, code, subtotal); err != nil && apperr.Code(err) != apperr.EINTERNAL {
				return err
			}
		}
	}
	return conflict
}

// collectLines returns the lines to buy sorted by variant id, so concurrent
// checkouts lock variant rows in the same order. cartID is zero for buy-now.
func (s *Service) collectLines(ctx context.Context, tx *gorm.DB, caller identity.Identity, req *PlaceOrderRequest) ([]line, uint, error) {
	const op = "checkout.place"
	if req.BuyNow != nil {
		return []line{{variantID: req.BuyNow.VariantID, quantity: req.BuyNow.Quantity}}, 0, nil
	}

	c, err := s.Carts.FindForUpdate(ctx, tx, caller)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load cart: %w", err)
	}
	if c == nil || c.IsEmpty() {
		return nil, 0, apperr.Validation(op, "cart is empty")
	}

	lines := make([]line, 0, len(c.Lines))
	for vid, qty := range c.Quantities() {
		if qty > cart.MaxLineQuantity {
			return nil, 0, apperr.Validation(op, "quantity for variant %d exceeds %d", vid, cart.MaxLineQuantity)
		}
		lines = append(lines, line{variantID: vid, quantity: qty})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].variantID < lines[j].variantID })
	return lines, c.ID, nil
}

func (s *Service) resolveDelivery(ctx context.Context, tx *gorm.DB, caller identity.Identity, req *PlaceOrderRequest) (order.Address, error) {
	if req.Delivery != nil {
		return req.Delivery.toAddress(), nil
	}
	a, err := s.Addresses.GetAddressTx(ctx, tx, caller.UserID(), *req.AddressID)
	if err != nil {
		return order.Address{}, err
	}
	return fromSavedAddress(a), nil
}

// assignCodes picks an unused order code and, for guests, a tracking code.
// The unique indexes remain the final guard.
func (s *Service) assignCodes(ctx context.Context, tx *gorm.DB, o *order.Order) error {
	code, err := s.unusedCode(ctx, tx, order.NewOrderCode, s.Orders.CodeTaken)
	if err != nil {
		return err
	}
	o.Code = code

	if o.IsGuest() {
		tracking, err := s.unusedCode(ctx, tx, order.NewTrackingCode, s.Orders.TrackingCodeTaken)
		if err != nil {
			return err
		}
		o.TrackingCode = &tracking
	}
	return nil
}

func (s *Service) unusedCode(ctx context.Context, tx *gorm.DB, gen func() string, taken func(context.Context, *gorm.DB, string) (bool, error)) (string, error) {
	for i := 0; i < s.CodeAttempts; i++ {
		code := gen()
		used, err := taken(ctx, tx, code)
		if err != nil {
			return "", err
		}
		if !used {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not allocate a unique code after %d attempts", s.CodeAttempts)
}

func validate(caller identity.Identity, req *PlaceOrderRequest) error {
	const op = "checkout.validate"
	if req == nil {
		return apperr.Validation(op, "request body is required")
	}

	switch {
	case req.Delivery != nil && req.AddressID != nil:
		return apperr.Validation(op, "provide either delivery or address_id, not both")
	case req.Delivery == nil && req.AddressID == nil:
		return apperr.Validation(op, "delivery details are required")
	case req.AddressID != nil && !caller.IsUser():
		return apperr.Validation(op, "saved addresses require sign in")
	}

	if d := req.Delivery; d != nil {
		if strings.TrimSpace(d.FullName) == "" || strings.TrimSpace(d.AddressLine1) == "" || strings.TrimSpace(d.City) == "" {
			return apperr.Validation(op, "full_name, address_line1 and city are required")
		}
		if !phone.ValidIn(d.Phone, d.Country) {
			return apperr.Validation(op, "a valid contact phone is required")
		}
	}

	if b := req.BuyNow; b != nil {
		if b.VariantID == 0 {
			return apperr.Validation(op, "buy_now.variant_id is required")
		}
		if b.Quantity < 1 || b.Quantity > cart.MaxLineQuantity {
			return apperr.Validation(op, "buy_now.quantity must be between 1 and %d", cart.MaxLineQuantity)
		}
	}
	return nil
}

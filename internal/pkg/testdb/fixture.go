// internal/pkg/testdb/fixture.go
package testdb

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/checkout"
	"github.com/your-org/storefront-backend/internal/domain/coupon"
	"github.com/your-org/storefront-backend/internal/domain/guarantee"
	"github.com/your-org/storefront-backend/internal/domain/identity"
	"github.com/your-org/storefront-backend/internal/domain/inventory"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/pricing"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/tracking"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/uow"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
)

// Fixture wires every domain service over one test database
type Fixture struct {
	DB        *gorm.DB
	UoW       *uow.UnitOfWork
	Products  *product.Repository
	Coupons   *coupon.Repository
	Pricing   *pricing.Engine
	Inventory *inventory.Service
	Carts     *cart.Store
	Addresses *user.AddressService
	Orders    *order.Service
	Checkout  *checkout.Service
	Guarantee *guarantee.Service
	Tracking  *tracking.Resolver
}

// NewFixture builds the services over a fresh in-memory database.
// notifier may be nil.
func NewFixture(t testing.TB, notifier order.Notifier) *Fixture {
	t.Helper()
	return NewFixtureOn(t, Open(t), notifier)
}

// NewFixtureOn builds the services over an already migrated db
func NewFixtureOn(t testing.TB, db *gorm.DB, notifier order.Notifier) *Fixture {
	t.Helper()
	return NewFixtureWith(t, db, UoW(db), notifier)
}

// NewFixtureWith builds the services over db with a caller supplied runner,
// e.g. one running at serializable isolation.
func NewFixtureWith(t testing.TB, db *gorm.DB, runner *uow.UnitOfWork, notifier order.Notifier) *Fixture {
	t.Helper()

	log := logger.Discard()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	f := &Fixture{DB: db, UoW: runner}
	f.Products = product.NewRepository(db)
	f.Coupons = coupon.NewRepository(db)
	f.Pricing = pricing.NewEngine(f.Products, f.Coupons)
	f.Inventory = inventory.NewService(db, log)
	f.Carts = cart.NewStore(db, runner, f.Pricing, log)
	f.Addresses = user.NewAddressService(db)
	f.Orders = order.NewService(db, runner, f.Inventory, notifier, log)
	f.Checkout = checkout.NewService(checkout.Deps{
		UoW:       runner,
		Carts:     f.Carts,
		Pricing:   f.Pricing,
		Coupons:   f.Coupons,
		Orders:    f.Orders,
		Inventory: f.Inventory,
		Addresses: f.Addresses,
		IDs:       node,
		Notifier:  notifier,
		Logger:    log,
	})
	f.Guarantee = guarantee.NewService(db, runner, log)
	f.Tracking = tracking.NewResolver(db)
	return f
}

// Delivery returns a valid typed-in delivery address
func Delivery(phone string) *checkout.DeliveryRequest {
	return &checkout.DeliveryRequest{
		FullName:     "Asha Rao",
		Phone:        phone,
		AddressLine1: "12 MG Road",
		City:         "Bengaluru",
		PostalCode:   "560001",
		Country:      "IN",
	}
}

// BuyNow places a single-item order for caller
func (f *Fixture) BuyNow(t testing.TB, caller identity.Identity, variantID uint, qty int) *order.Order {
	t.Helper()

	o, err := f.Checkout.PlaceOrder(context.Background(), caller, &checkout.PlaceOrderRequest{
		Delivery: Delivery("+91 98765 43210"),
		BuyNow:   &checkout.ItemRequest{VariantID: variantID, Quantity: qty},
	})
	require.NoError(t, err)
	return o
}

// Advance walks an order through the given statuses as an admin
func (f *Fixture) Advance(t testing.TB, orderID int64, statuses ...order.Status) {
	t.Helper()

	for _, s := range statuses {
		_, err := f.Orders.Transition(context.Background(), orderID, s, "admin:1", "")
		require.NoError(t, err)
	}
}

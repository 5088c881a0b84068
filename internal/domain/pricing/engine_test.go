package pricing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/storefront-backend/internal/domain/coupon"
	"github.com/your-org/storefront-backend/internal/domain/pricing"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/pkg/apperr"
	"github.com/your-org/storefront-backend/internal/pkg/testdb"
)

func newEngine(t *testing.T) (*pricing.Engine, *testdb.Fixture) {
	f := testdb.NewFixture(t, nil)
	return pricing.NewEngine(product.NewRepository(f.DB), coupon.NewRepository(f.DB)), f
}

func TestPriceVariants(t *testing.T) {
	engine, f := newEngine(t)
	v1 := testdb.Variant(t, f.DB, "V1", 1000, 150, 4)
	v2 := testdb.Variant(t, f.DB, "V2", 300, 500, 0)

	quotes, err := engine.PriceVariants(context.Background(), nil, []uint{v1.ID, v2.ID, 9999})
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	assert.Equal(t, int64(850), quotes[v1.ID].Price)
	assert.Equal(t, int64(1000), quotes[v1.ID].ListPrice)
	assert.Equal(t, 4, quotes[v1.ID].Stock)
	assert.True(t, quotes[v1.ID].Active)
	assert.Equal(t, int64(0), quotes[v2.ID].Price, "discount larger than price floors at zero")

	_, ok := quotes[9999]
	assert.False(t, ok)
}

func TestValidateCoupon(t *testing.T) {
	engine, f := newEngine(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	engine.WithClock(func() time.Time { return now })

	testdb.Coupon(t, f.DB, "SAVE10", coupon.DiscountPercentage, 10, nil)
	testdb.Coupon(t, f.DB, "FLAT500", coupon.DiscountFixed, 500, nil)

	expired := testdb.Coupon(t, f.DB, "OLD", coupon.DiscountFixed, 100, nil)
	require.NoError(t, f.DB.Model(&expired).Update("expires_at", now).Error)

	future := testdb.Coupon(t, f.DB, "SOON", coupon.DiscountFixed, 100, nil)
	require.NoError(t, f.DB.Model(&future).Update("starts_at", now.Add(time.Hour)).Error)

	one := 1
	used := testdb.Coupon(t, f.DB, "USED", coupon.DiscountFixed, 100, &one)
	require.NoError(t, f.DB.Model(&used).Update("used_count", 1).Error)

	off := testdb.Coupon(t, f.DB, "OFF", coupon.DiscountFixed, 100, nil)
	require.NoError(t, f.DB.Model(&off).Update("is_active", false).Error)

	tests := []struct {
		name         string
		code         string
		subtotal     int64
		wantDiscount int64
		wantTotal    int64
		wantErr      error
	}{
		{name: "percentage", code: "SAVE10", subtotal: 12000, wantDiscount: 1200, wantTotal: 10800},
		{name: "lower case code", code: " save10 ", subtotal: 12000, wantDiscount: 1200, wantTotal: 10800},
		{name: "percentage floors", code: "SAVE10", subtotal: 999, wantDiscount: 99, wantTotal: 900},
		{name: "fixed", code: "FLAT500", subtotal: 2000, wantDiscount: 500, wantTotal: 1500},
		{name: "fixed capped at subtotal", code: "FLAT500", subtotal: 300, wantDiscount: 300, wantTotal: 0},
		{name: "unknown", code: "NOPE", subtotal: 1000, wantErr: apperr.ErrCouponNotFound},
		{name: "inactive reads as unknown", code: "OFF", subtotal: 1000, wantErr: apperr.ErrCouponNotFound},
		{name: "expiry is exclusive", code: "OLD", subtotal: 1000, wantErr: apperr.ErrCouponExpired},
		{name: "not started", code: "SOON", subtotal: 1000, wantErr: apperr.ErrCouponExpired},
		{name: "max uses reached", code: "USED", subtotal: 1000, wantErr: apperr.ErrCouponMaxUses},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := engine.ValidateCoupon(context.Background(), nil, tt.code, tt.subtotal)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDiscount, q.Discount)
			assert.Equal(t, tt.wantTotal, q.Total)
			assert.Equal(t, tt.subtotal, q.Subtotal)
		})
	}

	_, err := engine.ValidateCoupon(context.Background(), nil, "", 100)
	assert.Equal(t, apperr.EINVALID, apperr.Code(err))

	var c coupon.Coupon
	require.NoError(t, f.DB.Where("code = ?", "SAVE10").First(&c).Error)
	assert.Zero(t, c.UsedCount, "validation must not consume a use")
}

func TestSubtotalAndTotal(t *testing.T) {
	quotes := map[uint]pricing.Quote{
		1: {VariantID: 1, Price: 6000},
		2: {VariantID: 2, Price: 250},
	}
	sub, err := pricing.Subtotal(quotes, map[uint]int{1: 2, 2: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(13000), sub)

	_, err = pricing.Subtotal(quotes, map[uint]int{3: 1})
	assert.Error(t, err)

	assert.Equal(t, int64(10800), pricing.Total(12000, 1200))
	assert.Equal(t, int64(0), pricing.Total(100, 500))
}

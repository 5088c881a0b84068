package tracking_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/storefront-backend/internal/domain/identity"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/pkg/apperr"
	"github.com/your-org/storefront-backend/internal/pkg/testdb"
)

func TestLookup(t *testing.T) {
	f := testdb.NewFixture(t, nil)
	ctx := context.Background()
	v := testdb.Variant(t, f.DB, "TEE", 1500, 0, 10)

	guestOrder := f.BuyNow(t, identity.Guest("g"), v.ID, 2)
	require.NotNil(t, guestOrder.TrackingCode)
	userOrder := f.BuyNow(t, identity.User(1), v.ID, 1)
	f.Advance(t, guestOrder.ID, order.StatusConfirmed)

	t.Run("guest by tracking code", func(t *testing.T) {
		s, err := f.Tracking.Lookup(ctx, identity.Guest("another-device"), *guestOrder.TrackingCode, "")
		require.NoError(t, err)
		assert.Equal(t, guestOrder.Code, s.Code)
		assert.Equal(t, order.StatusConfirmed, s.Status)
		assert.Equal(t, int64(3000), s.Total)
		assert.Equal(t, "Bengaluru", s.DeliveryCity)
		require.Len(t, s.Items, 1)
		assert.Equal(t, 2, s.Items[0].Quantity)
		require.Len(t, s.History, 2)
		assert.Equal(t, order.StatusPendingConfirmation, s.History[0].Status)
	})

	t.Run("guest with matching phone", func(t *testing.T) {
		_, err := f.Tracking.Lookup(ctx, identity.Guest("g"), *guestOrder.TrackingCode, "98765-43210")
		assert.NoError(t, err)
	})

	t.Run("user by order code in any case", func(t *testing.T) {
		s, err := f.Tracking.Lookup(ctx, identity.User(1), strings.ToLower(userOrder.Code), "")
		require.NoError(t, err)
		assert.Equal(t, userOrder.Code, s.Code)
	})

	notFound := []struct {
		name   string
		caller identity.Identity
		code   string
		phone  string
	}{
		{name: "guest by order code", caller: identity.Guest("g"), code: guestOrder.Code},
		{name: "guest wrong phone", caller: identity.Guest("g"), code: *guestOrder.TrackingCode, phone: "+1 555 0100"},
		{name: "guest unknown code", caller: identity.Guest("g"), code: "doesnotexist"},
		{name: "other user", caller: identity.User(2), code: userOrder.Code},
		{name: "user on guest order", caller: identity.User(1), code: *guestOrder.TrackingCode},
		{name: "anonymous", caller: identity.Identity{}, code: *guestOrder.TrackingCode},
	}
	for _, tt := range notFound {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Tracking.Lookup(ctx, tt.caller, tt.code, tt.phone)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperr.ErrNotFound), "got %v", err)
			assert.Equal(t, "resource not found", apperr.Message(err))
		})
	}

	_, err := f.Tracking.Lookup(ctx, identity.Guest("g"), "  ", "")
	assert.Equal(t, apperr.EINVALID, apperr.Code(err))
}

package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIs(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{
			name:   "out of stock matches sentinel through wrapping",
			err:    fmt.Errorf("checkout failed: %w", OutOfStock("checkout.place", 7)),
			target: ErrOutOfStock,
			want:   true,
		},
		{
			name:   "coupon reason matches specific sentinel",
			err:    CouponInvalid("pricing.coupon", ReasonExpired),
			target: ErrCouponExpired,
			want:   true,
		},
		{
			name:   "coupon reason matches generic sentinel",
			err:    CouponInvalid("pricing.coupon", ReasonMaxUsesReached),
			target: ErrCouponInvalid,
			want:   true,
		},
		{
			name:   "coupon reason mismatch",
			err:    CouponInvalid("pricing.coupon", ReasonNotFound),
			target: ErrCouponExpired,
			want:   false,
		},
		{
			name:   "different codes",
			err:    NotFound("tracking.lookup"),
			target: ErrClaimNotEligible,
			want:   false,
		},
		{
			name:   "foreign error",
			err:    errors.New("boom"),
			target: ErrNotFound,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestOutOfStockCarriesVariant(t *testing.T) {
	err := fmt.Errorf("wrap: %w", OutOfStock("op", 42))
	e, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, uint(42), e.VariantID)
	assert.Equal(t, EOUTOFSTOCK, Code(err))
}

func TestMessageHidesInternal(t *testing.T) {
	assert.Equal(t, "coupon has expired", Message(CouponInvalid("op", ReasonExpired)))
	assert.NotContains(t, Message(errors.New("pq: password authentication failed")), "password")
	assert.NotContains(t, Message(Wrap(errors.New("secret"), EINTERNAL, "op", "secret detail")), "secret")
	assert.Nil(t, Wrap(nil, EINTERNAL, "op", "x"))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[string]int{
		EINVALID:           http.StatusBadRequest,
		EUNAUTHORIZED:      http.StatusUnauthorized,
		ENOTFOUND:          http.StatusNotFound,
		EOUTOFSTOCK:        http.StatusConflict,
		ECOUPONINVALID:     http.StatusUnprocessableEntity,
		ECOUPONEXHAUSTED:   http.StatusConflict,
		EINVALIDTRANSITION: http.StatusConflict,
		ECLAIMNOTELIGIBLE:  http.StatusConflict,
		ERATELIMIT:         http.StatusTooManyRequests,
		EINTERNAL:          http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, HTTPStatus(code), code)
	}
	assert.Equal(t, EINTERNAL, Code(errors.New("x")))
	assert.Equal(t, "", Code(nil))
}

// internal/pkg/apperr/apperr.go
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Application error codes. Each maps to one HTTP status.
const (
	EINVALID           = "invalid"
	ENOTFOUND          = "not_found"
	EUNAUTHORIZED      = "unauthorized"
	EFORBIDDEN         = "forbidden"
	ECONFLICT          = "conflict"
	EOUTOFSTOCK        = "out_of_stock"
	ECOUPONINVALID     = "coupon_invalid"
	ECOUPONEXHAUSTED   = "coupon_exhausted"
	EINVALIDTRANSITION = "invalid_transition"
	ECLAIMNOTELIGIBLE  = "claim_not_eligible"
	ERATELIMIT         = "rate_limit"
	EINTERNAL          = "internal"
)

// Coupon rejection reasons carried in Error.Reason for ECOUPONINVALID.
const (
	ReasonNotFound       = "not_found"
	ReasonExpired        = "expired"
	ReasonMaxUsesReached = "max_uses_reached"
)

// Error is the application error carried from domain services to the HTTP edge.
type Error struct {
	// Code is machine readable and drives the HTTP status.
	Code string

	// Message is safe to show to callers.
	Message string

	// Op names the operation, e.g. "checkout.place". Logged, never rendered.
	Op string

	// Reason refines Code, e.g. the coupon rejection reason.
	Reason string

	// VariantID is set on EOUTOFSTOCK.
	VariantID uint

	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Op != "" {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Code so callers can compare against the sentinel values below.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	if t.Code != e.Code {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

// Sentinels for errors.Is. Only Code (and Reason when set) are compared.
var (
	ErrValidation        = &Error{Code: EINVALID}
	ErrNotFound          = &Error{Code: ENOTFOUND}
	ErrUnauthorized      = &Error{Code: EUNAUTHORIZED}
	ErrConflict          = &Error{Code: ECONFLICT}
	ErrOutOfStock        = &Error{Code: EOUTOFSTOCK}
	ErrCouponInvalid     = &Error{Code: ECOUPONINVALID}
	ErrCouponNotFound    = &Error{Code: ECOUPONINVALID, Reason: ReasonNotFound}
	ErrCouponExpired     = &Error{Code: ECOUPONINVALID, Reason: ReasonExpired}
	ErrCouponMaxUses     = &Error{Code: ECOUPONINVALID, Reason: ReasonMaxUsesReached}
	ErrCouponExhausted   = &Error{Code: ECOUPONEXHAUSTED}
	ErrInvalidTransition = &Error{Code: EINVALIDTRANSITION}
	ErrClaimNotEligible  = &Error{Code: ECLAIMNOTELIGIBLE}
)

// Errorf creates a new error with a formatted message.
func Errorf(code, op, format string, args ...interface{}) error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap attaches a code and operation to err. Returns nil if err is nil.
func Wrap(err error, code, op, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// Validation reports bad caller input.
func Validation(op, format string, args ...interface{}) error {
	return Errorf(EINVALID, op, format, args...)
}

// NotFound is deliberately generic so lookups cannot be used as an oracle.
func NotFound(op string) error {
	return &Error{Code: ENOTFOUND, Op: op, Message: "resource not found"}
}

// OutOfStock reports the first variant whose stock could not cover the order.
func OutOfStock(op string, variantID uint) error {
	return &Error{
		Code:      EOUTOFSTOCK,
		Op:        op,
		Message:   fmt.Sprintf("variant %d is out of stock", variantID),
		VariantID: variantID,
	}
}

// CouponInvalid reports why a coupon cannot be applied.
func CouponInvalid(op, reason string) error {
	msg := "coupon is not valid"
	switch reason {
	case ReasonNotFound:
		msg = "coupon not found"
	case ReasonExpired:
		msg = "coupon has expired"
	case ReasonMaxUsesReached:
		msg = "coupon usage limit reached"
	}
	return &Error{Code: ECOUPONINVALID, Op: op, Message: msg, Reason: reason}
}

// CouponExhausted reports losing the race for the last coupon use inside checkout.
func CouponExhausted(op, code string) error {
	return &Error{Code: ECOUPONEXHAUSTED, Op: op, Message: fmt.Sprintf("coupon %s has no remaining uses", code)}
}

// InvalidTransition reports a move the state table does not allow.
func InvalidTransition(op, from, to string) error {
	return &Error{
		Code:    EINVALIDTRANSITION,
		Op:      op,
		Message: fmt.Sprintf("cannot move from %s to %s", from, to),
	}
}

// ClaimNotEligible reports an order that cannot take a guarantee claim.
func ClaimNotEligible(op, reason string) error {
	return &Error{Code: ECLAIMNOTELIGIBLE, Op: op, Message: reason}
}

// Code extracts the error code. Returns EINTERNAL for foreign errors.
func Code(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// Message extracts a caller-facing message, hiding internal details.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Code != EINTERNAL {
		return e.Message
	}
	return "An internal error occurred. Please try again later."
}

// As returns the first *Error in the chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// HTTPStatus maps an error code to a response status.
func HTTPStatus(code string) int {
	switch code {
	case EINVALID:
		return http.StatusBadRequest
	case EUNAUTHORIZED:
		return http.StatusUnauthorized
	case EFORBIDDEN:
		return http.StatusForbidden
	case ENOTFOUND:
		return http.StatusNotFound
	case ECONFLICT, EOUTOFSTOCK, ECOUPONEXHAUSTED, EINVALIDTRANSITION, ECLAIMNOTELIGIBLE:
		return http.StatusConflict
	case ECOUPONINVALID:
		return http.StatusUnprocessableEntity
	case ERATELIMIT:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

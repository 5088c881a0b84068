// internal/domain/order/codes.go
package order

import (
	"strings"

	"github.com/lithammer/shortuuid/v4"
)

// Order codes avoid characters that read alike (0/O, 1/I).
const orderCodeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

const orderCodeLength = 7

// NewOrderCode returns a human-friendly order reference, ORD-XXXXXXX.
// Codes are short and may collide; callers check uniqueness.
func NewOrderCode() string {
	s := shortuuid.NewWithAlphabet(orderCodeAlphabet)
	mid := len(s) / 2
	return "ORD-" + s[mid-orderCodeLength/2:mid-orderCodeLength/2+orderCodeLength]
}

// NewTrackingCode returns an unguessable guest tracking token.
func NewTrackingCode() string {
	return shortuuid.New()
}

// IsOrderCode checks the ORD-XXXXXXX shape
func IsOrderCode(s string) bool {
	if len(s) != 4+orderCodeLength || s[:4] != "ORD-" {
		return false
	}
	for _, r := range s[4:] {
		if !strings.ContainsRune(orderCodeAlphabet, r) {
			return false
		}
	}
	return true
}

// internal/pkg/phone/phone.go
package phone

import (
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is assumed for numbers written without a country prefix
// when the address carries no country.
const DefaultRegion = "IN"

var ErrInvalid = errors.New("invalid phone number")

// Parse returns the E.164 form of s. region is the ISO country code of the
// address the number belongs to.
func Parse(s, region string) (string, error) {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = DefaultRegion
	}
	num, err := phonenumbers.Parse(strings.TrimSpace(s), region)
	if err != nil {
		return "", ErrInvalid
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", ErrInvalid
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// Normalize returns the E.164 form of s, or "" when s is not a valid number
func Normalize(s, region string) string {
	e164, err := Parse(s, region)
	if err != nil {
		return ""
	}
	return e164
}

// Valid reports whether s is a dialable number in DefaultRegion or carries
// its own country prefix.
func Valid(s string) bool {
	return ValidIn(s, "")
}

func ValidIn(s, region string) bool {
	_, err := Parse(s, region)
	return err == nil
}

// Match compares a stored number with one supplied by a caller, reading both
// in region. An empty or invalid supplied value never matches.
func Match(stored, supplied, region string) bool {
	a, b := Normalize(stored, region), Normalize(supplied, region)
	return a != "" && a == b
}

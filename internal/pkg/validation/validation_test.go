package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Phone string `validate:"required,phone"`
	Code  string `validate:"omitempty,ordercode"`
}

func TestCustomTags(t *testing.T) {
	v := validator.New()
	require.NoError(t, RegisterOn(v))

	assert.NoError(t, v.Struct(sample{Phone: "+1 201 555 0123", Code: "ORD-ABC2345"}))

	err := v.Struct(sample{Phone: "abc", Code: "ORD-abc"})
	require.Error(t, err)
	fields := FieldErrors(err)
	assert.Equal(t, "phone", fields["Phone"])
	assert.Equal(t, "ordercode", fields["Code"])
}

type address struct {
	Phone   string `validate:"required,phone"`
	Country string
}

func TestPhoneReadsSiblingCountry(t *testing.T) {
	v := validator.New()
	require.NoError(t, RegisterOn(v))

	assert.NoError(t, v.Struct(address{Phone: "(201) 555-0123", Country: "US"}))
	assert.NoError(t, v.Struct(address{Phone: "98765 43210"}), "no country falls back to the default region")
	assert.Error(t, v.Struct(address{Phone: "(201) 555-0123", Country: "IN"}))
}

// internal/pkg/validation/validation.go
package validation

import (
	"reflect"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/pkg/phone"
)

// Register adds the storefront's custom binding tags to gin's validator.
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return RegisterOn(v)
}

// RegisterOn adds the custom tags to v
func RegisterOn(v *validator.Validate) error {
	if err := v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phone.ValidIn(fl.Field().String(), siblingCountry(fl))
	}); err != nil {
		return err
	}
	return v.RegisterValidation("ordercode", func(fl validator.FieldLevel) bool {
		return order.IsOrderCode(fl.Field().String())
	})
}

// siblingCountry reads the Country field next to a phone, if the struct has one
func siblingCountry(fl validator.FieldLevel) string {
	parent := fl.Parent()
	if parent.Kind() != reflect.Struct {
		return ""
	}
	if c := parent.FieldByName("Country"); c.IsValid() && c.Kind() == reflect.String {
		return c.String()
	}
	return ""
}

// FieldErrors flattens validator errors into field -> tag pairs for responses
func FieldErrors(err error) map[string]string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}

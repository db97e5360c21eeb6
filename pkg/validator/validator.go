package validator

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// CustomValidator implements echo.Validator using go-playground/validator
type CustomValidator struct {
	v *validator.Validate
}

// New creates a validator with the request-level rules registered:
// "rfc3339" for timestamp query parameters and "content_type" for the
// search family filter.
func New() *CustomValidator {
	v := validator.New()
	v.RegisterValidation("rfc3339", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		_, err := time.Parse(time.RFC3339, s)
		return err == nil
	})
	v.RegisterValidation("content_type", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "", "all", "ocr", "audio", "fts":
			return true
		default:
			return false
		}
	})
	return &CustomValidator{v: v}
}

// Validate performs struct validation
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}

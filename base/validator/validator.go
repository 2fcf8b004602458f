package validator

import (
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

const maxUserIdLen = 128

// IsPositiveDecimal reports whether s parses as a decimal strictly greater than zero
func IsPositiveDecimal(s string) bool {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return false
	}
	return d.IsPositive()
}

// IsValidUserId accepts opaque user identifiers without surrounding or embedded whitespace
func IsValidUserId(s string) bool {
	if s == "" || len(s) > maxUserIdLen {
		return false
	}
	return strings.IndexFunc(s, unicode.IsSpace) < 0
}

// New returns a validator with the ledger tags registered:
// "price" for positive decimal strings and "userid" for user identifiers.
func New() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("price", func(fl validator.FieldLevel) bool {
		return IsPositiveDecimal(fl.Field().String())
	})
	_ = v.RegisterValidation("userid", func(fl validator.FieldLevel) bool {
		return IsValidUserId(fl.Field().String())
	})
	return v
}

func NewCustomValidator(v *validator.Validate) echo.Validator {
	return &CustomValidator{v}
}

type CustomValidator struct {
	validator *validator.Validate
}

func (v *CustomValidator) Validate(i interface{}) error {
	if err := v.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

package schema

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/amoylab/casamento/internal/apiserver/model"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// maxMoney bounds decimal(10,2) columns
var maxMoney = decimal.New(1, 8)

var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}\p{M}_.@+-]+$`)

// maxPasswordBytes is the longest input bcrypt hashes
const maxPasswordBytes = 72

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(model.Date); ok {
			return d.Time
		}
		return nil
	}, model.Date{})

	_ = v.RegisterValidation("money", validateMoney)
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("bcryptlen", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= maxPasswordBytes
	})
	return v
}

// validateMoney accepts non-negative amounts with at most two decimal places
// that fit ten digits
func validateMoney(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	if d.IsNegative() {
		return false
	}
	if !d.Equal(d.Truncate(2)) {
		return false
	}
	return d.LessThan(maxMoney)
}

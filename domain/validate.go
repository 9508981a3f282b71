package domain

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report json names so errors match request fields.
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		// Decimals are validated as their exact string form, never as floats.
		validate.RegisterCustomTypeFunc(func(v reflect.Value) any {
			d, ok := v.Interface().(decimal.Decimal)
			if !ok {
				return nil
			}
			return d.String()
		}, decimal.Decimal{})
		for tag, fn := range decimalValidators {
			if err := validate.RegisterValidation(tag, fn); err != nil {
				panic(err)
			}
		}
	})
	return validate
}

// Decimal tags compare exactly against their parameter:
//
//	decimal_gt=0, decimal_gte=0, decimal_lte=100
//	decimal_scale=4   at most 4 digits after the point
var decimalValidators = map[string]validator.Func{
	"decimal_gt":  decimalCompare(func(c int) bool { return c > 0 }),
	"decimal_gte": decimalCompare(func(c int) bool { return c >= 0 }),
	"decimal_lte": decimalCompare(func(c int) bool { return c <= 0 }),
	"decimal_scale": func(fl validator.FieldLevel) bool {
		d, ok := fieldDecimal(fl)
		if !ok {
			return false
		}
		places, err := strconv.ParseInt(fl.Param(), 10, 32)
		if err != nil {
			panic("decimal_scale: bad parameter " + fl.Param())
		}
		return d.Equal(d.Truncate(int32(places)))
	},
}

func decimalCompare(accept func(cmp int) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		d, ok := fieldDecimal(fl)
		if !ok {
			return false
		}
		bound, err := decimal.NewFromString(fl.Param())
		if err != nil {
			panic(fl.GetTag() + ": bad parameter " + fl.Param())
		}
		return accept(d.Cmp(bound))
	}
}

func fieldDecimal(fl validator.FieldLevel) (decimal.Decimal, bool) {
	field := fl.Field()
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d, true
	}
	if field.Kind() != reflect.String {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(field.String())
	return d, err == nil
}

// Validate checks struct tags and returns the first failure as a
// *ValidationError.
func Validate(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ValidationError{Field: fe.Field(), Reason: reason(fe)}
	}
	return &ValidationError{Reason: err.Error()}
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt", "decimal_gt":
		return "must be greater than " + fe.Param()
	case "gte", "decimal_gte":
		return "must be at least " + fe.Param()
	case "lte", "decimal_lte":
		return "must be at most " + fe.Param()
	case "decimal_scale":
		return "must have at most " + fe.Param() + " decimal places"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of " + fe.Param()
	case "nefield":
		return "must differ from " + fe.Param()
	}
	return "failed " + fe.Tag()
}

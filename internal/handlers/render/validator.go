package render

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appvalidate "github.com/nkiryanov/recharge/internal/service/validate"
)

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(useJSONTagNames)

	// Validate decimals and uuids as their string form, so 'required' and custom tags apply
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	v.RegisterCustomTypeFunc(uuidValue, uuid.UUID{})
	_ = v.RegisterValidation("money", validateMoney)
	_ = v.RegisterValidation("phone", validatePhone)

	return v
}

// Return on 'TagName' json tag instead of struct name
// Look at documentation of 'RegisterTagNameFunc' for more details
func useJSONTagNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	// skip if tag key says it should be ignored
	if name == "-" {
		return ""
	}
	return name
}

func decimalValue(field reflect.Value) any {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.String()
	}
	return nil
}

func uuidValue(field reflect.Value) any {
	if id, ok := field.Interface().(uuid.UUID); ok && id != uuid.Nil {
		return id.String()
	}
	return ""
}

// Positive amount with at most two fraction digits
func validateMoney(fl validator.FieldLevel) bool {
	amount, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return appvalidate.Amount(amount) == nil
}

func validatePhone(fl validator.FieldLevel) bool {
	return appvalidate.PhoneNumber(fl.Field().String()) == nil
}

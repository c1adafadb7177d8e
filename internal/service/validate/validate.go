package validate

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/recharge/internal/apperrors"
)

// Money is stored as NUMERIC(15,2): 13 integer digits and 2 fraction digits
const (
	MoneyScale         = 2
	moneyIntegerDigits = 13
)

var moneyLimit = decimal.New(1, moneyIntegerDigits)

// Amount checks the value is a positive fixed-point amount the storage can hold exactly
func Amount(amount decimal.Decimal) error {
	switch {
	case !amount.IsPositive():
		return fmt.Errorf("%w: must be greater than zero, got %s", apperrors.ErrAmountInvalid, amount.String())
	case !amount.Equal(amount.Round(MoneyScale)):
		return fmt.Errorf("%w: at most %d fraction digits allowed, got %s", apperrors.ErrAmountInvalid, MoneyScale, amount.String())
	case amount.GreaterThanOrEqual(moneyLimit):
		return fmt.Errorf("%w: must be less than %s, got %s", apperrors.ErrAmountInvalid, moneyLimit.String(), amount.String())
	default:
		return nil
	}
}

// PhoneNumber accepts digits with optional leading '+', from 5 to 20 characters
func PhoneNumber(number string) error {
	if len(number) < 5 || len(number) > 20 {
		return fmt.Errorf("%w: length must be between 5 and 20, got %d", apperrors.ErrPhoneNumberInvalid, len(number))
	}

	for i := 0; i < len(number); i++ {
		n := number[i]
		if n == '+' && i == 0 {
			continue
		}
		if n < '0' || n > '9' {
			return fmt.Errorf("%w: invalid character %q", apperrors.ErrPhoneNumberInvalid, n)
		}
	}

	return nil
}

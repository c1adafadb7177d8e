package validate

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/recharge/internal/apperrors"
)

func TestAmount(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		for _, value := range []string{"0.01", "1", "1000.5", "100000.00", "9999999999999.99"} {
			t.Run(value, func(t *testing.T) {
				require.NoError(t, Amount(decimal.RequireFromString(value)))
			})
		}
	})

	t.Run("not valid", func(t *testing.T) {
		for _, value := range []string{"0", "-1", "-0.01", "0.001", "10.999", "10000000000000"} {
			t.Run(value, func(t *testing.T) {
				err := Amount(decimal.RequireFromString(value))

				require.Error(t, err)
				require.ErrorIs(t, err, apperrors.ErrAmountInvalid)
			})
		}
	})
}

func TestPhoneNumber(t *testing.T) {
	tests := []struct {
		number string
		valid  bool
	}{
		{"09123456789", true},
		{"+989123456789", true},
		{"1234", false},
		{"123456789012345678901", false},
		{"0912-345-678", false},
		{"0912+345678", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.number, func(t *testing.T) {
			err := PhoneNumber(tt.number)

			if tt.valid {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, apperrors.ErrPhoneNumberInvalid)
			}
		})
	}
}

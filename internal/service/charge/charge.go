package charge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/recharge/internal/apperrors"
	"github.com/nkiryanov/recharge/internal/logger"
	"github.com/nkiryanov/recharge/internal/metrics"
	"github.com/nkiryanov/recharge/internal/models"
	"github.com/nkiryanov/recharge/internal/repository"
	"github.com/nkiryanov/recharge/internal/service/validate"
)

// History size when caller does not set one
const DefaultHistoryLimit = 100

type ChargeService struct {
	storage repository.Storage
	logger  logger.Logger
	metrics *metrics.Metrics
}

func NewService(storage repository.Storage, l logger.Logger, m *metrics.Metrics) *ChargeService {
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &ChargeService{
		storage: storage,
		logger:  l,
		metrics: m,
	}
}

// Charge sells recharge of amount to phone number and debits seller balance.
// Debit, sale and ledger entry are committed together or not at all.
func (s *ChargeService) Charge(ctx context.Context, sellerID uuid.UUID, phoneID uuid.UUID, amount decimal.Decimal) (sale models.RechargeSale, err error) {
	defer func(start time.Time) { s.metrics.Observe(metrics.OpChargePhone, start, err) }(time.Now())

	if err := validate.Amount(amount); err != nil {
		return models.RechargeSale{}, err
	}

	// Phone checks go before the seller lock: a bad phone must not hold other charges of the seller
	phone, err := s.storage.PhoneNumber().GetPhoneNumber(ctx, phoneID)
	if err != nil {
		return models.RechargeSale{}, passOrFail(err)
	}
	if !phone.IsActive {
		return models.RechargeSale{}, fmt.Errorf("phone number %s: %w", phone.Number, apperrors.ErrPhoneNumberInactive)
	}

	var entry models.CreditTransaction

	err = s.storage.InTx(ctx, func(storage repository.Storage) error {
		seller, err := storage.Seller().GetSeller(ctx, sellerID, true)
		if err != nil {
			return err
		}
		if seller.Balance.LessThan(amount) {
			return &apperrors.InsufficientBalanceError{Have: seller.Balance, Need: amount}
		}

		seller, err = storage.Seller().AddBalance(ctx, sellerID, amount.Neg())
		if err != nil {
			return err
		}

		sale, err = storage.RechargeSale().CreateSale(ctx, models.RechargeSale{
			ID:            uuid.New(),
			SellerID:      sellerID,
			PhoneNumberID: phone.ID,
			Amount:        amount,
			Status:        models.RechargeSaleCompleted,
		})
		if err != nil {
			return err
		}

		entry, err = storage.Ledger().Append(ctx, models.CreditTransaction{
			SellerID:     sellerID,
			Amount:       amount.Neg(),
			Type:         models.TransactionTypeRechargeSale,
			ReferenceID:  sale.ID,
			BalanceAfter: seller.Balance,
		})
		return err
	})

	if err != nil {
		err = passOrFail(err)
		if apperrors.KindOf(err) == apperrors.KindOperationFailed {
			s.logger.Error("charge aborted", "seller_id", sellerID, "phone_number_id", phoneID, "error", err)
		}
		return models.RechargeSale{}, err
	}

	s.logger.Debug("phone charged",
		"sale_id", sale.ID,
		"seller_id", sellerID,
		"phone_number", phone.Number,
		"amount", amount.StringFixed(2),
		"balance_after", entry.BalanceAfter.StringFixed(2),
	)

	return sale, nil
}

// History returns seller sales most recent first.
// limit <= 0 means DefaultHistoryLimit
func (s *ChargeService) History(ctx context.Context, sellerID uuid.UUID, limit int) ([]models.RechargeSale, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	sales, err := s.storage.RechargeSale().ListSales(ctx, sellerID, limit)
	if err != nil {
		return nil, apperrors.NewOperationError("get recharge history", nil, err)
	}

	return sales, nil
}

func passOrFail(err error) error {
	switch {
	case errors.Is(err, apperrors.ErrPhoneNumberNotFound),
		errors.Is(err, apperrors.ErrSellerNotFound),
		errors.Is(err, apperrors.ErrBalanceInsufficient):
		return err
	default:
		return apperrors.NewOperationError("charge phone", apperrors.ErrChargeFailed, err)
	}
}

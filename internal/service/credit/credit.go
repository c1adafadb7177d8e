package credit

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

type CreditService struct {
	storage repository.Storage
	logger  logger.Logger
	metrics *metrics.Metrics
}

func NewService(storage repository.Storage, l logger.Logger, m *metrics.Metrics) *CreditService {
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &CreditService{
		storage: storage,
		logger:  l,
		metrics: m,
	}
}

// CreateRequest registers a pending credit request for seller.
// Repeated call with the same seller and amount returns the already pending request.
func (s *CreditService) CreateRequest(ctx context.Context, sellerID uuid.UUID, amount decimal.Decimal) (req models.CreditRequest, err error) {
	defer func(start time.Time) { s.metrics.Observe(metrics.OpCreateCreditRequest, start, err) }(time.Now())

	if err := validate.Amount(amount); err != nil {
		return models.CreditRequest{}, err
	}

	var created bool

	// Seller lock serializes identical submissions, so only one of them inserts
	err = s.storage.InTx(ctx, func(storage repository.Storage) error {
		if _, err := storage.Seller().GetSeller(ctx, sellerID, true); err != nil {
			return err
		}

		req, created, err = storage.CreditRequest().CreatePending(ctx, sellerID, amount)
		return err
	})
	if err != nil {
		return models.CreditRequest{}, passOrFail("create credit request", nil, err)
	}

	s.logger.Info("credit request registered",
		"request_id", req.ID,
		"seller_id", sellerID,
		"amount", amount.StringFixed(2),
		"created", created,
	)

	return req, nil
}

// Approve applies pending request: flips status, credits seller balance and appends ledger entry.
// Either all three are committed or none.
func (s *CreditService) Approve(ctx context.Context, requestID uuid.UUID) (req models.CreditRequest, err error) {
	defer func(start time.Time) { s.metrics.Observe(metrics.OpApproveCreditRequest, start, err) }(time.Now())

	var entry models.CreditTransaction

	err = s.storage.InTx(ctx, func(storage repository.Storage) error {
		// Lock order is request then seller. Charges lock seller only, so the order never inverts
		locked, err := storage.CreditRequest().GetCreditRequest(ctx, requestID, true)
		if err != nil {
			return err
		}
		if !locked.IsPending() {
			return fmt.Errorf("credit request %s is already %s, cannot approve: %w", requestID, locked.Status, apperrors.ErrCreditRequestNotPending)
		}

		if _, err := storage.Seller().GetSeller(ctx, locked.SellerID, true); err != nil {
			return err
		}

		now := time.Now()
		req, err = storage.CreditRequest().SetStatus(ctx, requestID, models.CreditRequestApproved, &now)
		if err != nil {
			return err
		}

		seller, err := storage.Seller().AddBalance(ctx, req.SellerID, req.Amount)
		if err != nil {
			return err
		}

		entry, err = storage.Ledger().Append(ctx, models.CreditTransaction{
			SellerID:     req.SellerID,
			Amount:       req.Amount,
			Type:         models.TransactionTypeCreditIncrease,
			ReferenceID:  req.ID,
			BalanceAfter: seller.Balance,
		})
		return err
	})

	if err != nil {
		err = passOrFail("approve credit request", apperrors.ErrCreditRequestInvalid, err)
		if apperrors.KindOf(err) == apperrors.KindOperationFailed {
			s.logger.Error("credit request approval aborted", "request_id", requestID, "error", err)
		}
		return models.CreditRequest{}, err
	}

	s.logger.Info("credit request approved",
		"request_id", req.ID,
		"seller_id", req.SellerID,
		"amount", req.Amount.StringFixed(2),
		"balance_after", entry.BalanceAfter.StringFixed(2),
	)

	return req, nil
}

// Reject closes pending request without touching seller balance
func (s *CreditService) Reject(ctx context.Context, requestID uuid.UUID) (req models.CreditRequest, err error) {
	defer func(start time.Time) { s.metrics.Observe(metrics.OpRejectCreditRequest, start, err) }(time.Now())

	err = s.storage.InTx(ctx, func(storage repository.Storage) error {
		locked, err := storage.CreditRequest().GetCreditRequest(ctx, requestID, true)
		if err != nil {
			return err
		}
		if !locked.IsPending() {
			return fmt.Errorf("credit request %s is already %s, cannot reject: %w", requestID, locked.Status, apperrors.ErrCreditRequestNotPending)
		}

		req, err = storage.CreditRequest().SetStatus(ctx, requestID, models.CreditRequestRejected, nil)
		return err
	})
	if err != nil {
		return models.CreditRequest{}, passOrFail("reject credit request", apperrors.ErrCreditRequestInvalid, err)
	}

	s.logger.Info("credit request rejected", "request_id", req.ID, "seller_id", req.SellerID)

	return req, nil
}

func (s *CreditService) GetBalance(ctx context.Context, sellerID uuid.UUID) (decimal.Decimal, error) {
	seller, err := s.storage.Seller().GetSeller(ctx, sellerID, false)
	if err != nil {
		return decimal.Zero, passOrFail("get seller balance", nil, err)
	}

	return seller.Balance, nil
}

func (s *CreditService) GetRequest(ctx context.Context, requestID uuid.UUID) (models.CreditRequest, error) {
	req, err := s.storage.CreditRequest().GetCreditRequest(ctx, requestID, false)
	if err != nil {
		return models.CreditRequest{}, passOrFail("get credit request", nil, err)
	}

	return req, nil
}

// ListRequests returns seller requests newest first, optionally filtered by status
func (s *CreditService) ListRequests(ctx context.Context, sellerID uuid.UUID, statuses ...string) ([]models.CreditRequest, error) {
	if _, err := s.storage.Seller().GetSeller(ctx, sellerID, false); err != nil {
		return nil, passOrFail("list credit requests", nil, err)
	}

	requests, err := s.storage.CreditRequest().ListCreditRequests(ctx, sellerID, statuses)
	if err != nil {
		return nil, passOrFail("list credit requests", nil, err)
	}

	return requests, nil
}

// passOrFail returns typed domain errors as is and wraps everything else into OperationError
func passOrFail(op string, sentinel error, err error) error {
	switch {
	case errors.Is(err, apperrors.ErrSellerNotFound),
		errors.Is(err, apperrors.ErrCreditRequestNotFound),
		errors.Is(err, apperrors.ErrCreditRequestNotPending),
		errors.Is(err, apperrors.ErrAmountInvalid):
		return err
	default:
		return apperrors.NewOperationError(op, sentinel, err)
	}
}

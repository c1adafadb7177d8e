// Package reconcile checks that seller balances agree with their ledger.
// Reads take no locks, so a check racing with charges may report a transient mismatch.
package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/recharge/internal/apperrors"
	"github.com/nkiryanov/recharge/internal/logger"
	"github.com/nkiryanov/recharge/internal/metrics"
	"github.com/nkiryanov/recharge/internal/models"
	"github.com/nkiryanov/recharge/internal/repository"
)

// Differences below one cent are treated as rounding noise
var tolerance = decimal.New(1, -2)

type Report struct {
	SellerID          uuid.UUID
	CurrentBalance    decimal.Decimal
	CalculatedBalance decimal.Decimal
	IsMatch           bool
	TransactionCount  int64

	// ChainIntact is false when some entry balance_after differs from predecessor plus amount.
	// BrokenAt is the first such entry
	ChainIntact bool
	BrokenAt    *uuid.UUID
}

type Checker struct {
	storage repository.Storage
	logger  logger.Logger
	metrics *metrics.Metrics
}

func NewChecker(storage repository.Storage, l logger.Logger, m *metrics.Metrics) *Checker {
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &Checker{
		storage: storage,
		logger:  l,
		metrics: m,
	}
}

func (c *Checker) Verify(ctx context.Context, sellerID uuid.UUID) (report Report, err error) {
	defer func(start time.Time) { c.metrics.Observe(metrics.OpVerifyAccounting, start, err) }(time.Now())

	seller, err := c.storage.Seller().GetSeller(ctx, sellerID, false)
	if err != nil {
		return Report{}, passOrFail(err)
	}

	return c.verify(ctx, seller)
}

// VerifyAll checks every seller and stops at the first read error
func (c *Checker) VerifyAll(ctx context.Context) ([]Report, error) {
	sellers, err := c.storage.Seller().ListSellers(ctx)
	if err != nil {
		return nil, passOrFail(err)
	}

	reports := make([]Report, 0, len(sellers))
	for _, seller := range sellers {
		report, err := c.verify(ctx, seller)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}

	return reports, nil
}

func (c *Checker) verify(ctx context.Context, seller models.Seller) (Report, error) {
	entries, err := c.storage.Ledger().ListTransactions(ctx, seller.ID)
	if err != nil {
		return Report{}, passOrFail(err)
	}

	report := Report{
		SellerID:          seller.ID,
		CurrentBalance:    seller.Balance,
		CalculatedBalance: decimal.Zero,
		TransactionCount:  int64(len(entries)),
		ChainIntact:       true,
	}

	for _, entry := range entries {
		report.CalculatedBalance = report.CalculatedBalance.Add(entry.Amount)

		if report.ChainIntact && !entry.BalanceAfter.Equal(report.CalculatedBalance) {
			report.ChainIntact = false
			report.BrokenAt = &entry.ID
		}
	}

	report.IsMatch = report.CurrentBalance.Sub(report.CalculatedBalance).Abs().LessThan(tolerance)

	if !report.IsMatch || !report.ChainIntact {
		c.metrics.ReconciliationMismatch()
		c.logger.Warn("seller balance does not match ledger",
			"seller_id", seller.ID,
			"current_balance", report.CurrentBalance.StringFixed(2),
			"calculated_balance", report.CalculatedBalance.StringFixed(2),
			"chain_intact", report.ChainIntact,
		)
	}

	return report, nil
}

func passOrFail(err error) error {
	if errors.Is(err, apperrors.ErrSellerNotFound) {
		return err
	}
	return apperrors.NewOperationError("verify accounting integrity", nil, err)
}

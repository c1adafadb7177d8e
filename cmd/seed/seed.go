package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/recharge/internal/apperrors"
	"github.com/nkiryanov/recharge/internal/logger"
	"github.com/nkiryanov/recharge/internal/models"
	"github.com/nkiryanov/recharge/internal/repository"
	"github.com/nkiryanov/recharge/internal/service/credit"
	"github.com/nkiryanov/recharge/internal/service/phone"
	"github.com/nkiryanov/recharge/internal/service/reconcile"
	"github.com/nkiryanov/recharge/internal/service/seller"
)

type sampleSeller struct {
	Name    string
	Balance decimal.Decimal
}

var sampleSellers = []sampleSeller{
	{Name: "Seller 1", Balance: decimal.NewFromInt(1_000_000)},
	{Name: "Seller 2", Balance: decimal.NewFromInt(500_000)},
}

// 09123456780 .. 09123456789
var samplePhones = func() []string {
	phones := make([]string, 0, 10)
	for i := range 10 {
		phones = append(phones, fmt.Sprintf("0912345678%d", i))
	}
	return phones
}()

type seedResult struct {
	Sellers []models.Seller
	Phones  []models.PhoneNumber
	Reports []reconcile.Report
}

func (r seedResult) Print(w io.Writer) {
	fmt.Fprintln(w, "Sellers:")
	for _, s := range r.Sellers {
		fmt.Fprintf(w, "  %s  %-10s balance %s\n", s.ID, s.Name, s.Balance.StringFixed(2))
	}

	fmt.Fprintln(w, "Phone numbers:")
	for _, p := range r.Phones {
		fmt.Fprintf(w, "  %s  %s\n", p.ID, p.Number)
	}

	fmt.Fprintln(w, "Accounting:")
	for _, report := range r.Reports {
		status := "ok"
		if !report.IsMatch || !report.ChainIntact {
			status = "MISMATCH"
		}
		fmt.Fprintf(w, "  %s  balance %s  ledger %s  entries %d  %s\n",
			report.SellerID,
			report.CurrentBalance.StringFixed(2),
			report.CalculatedBalance.StringFixed(2),
			report.TransactionCount,
			status,
		)
	}
}

// seed creates sample sellers and phone numbers that are missing.
// Opening balance goes through approved credit request, so ledger reconciles from the first entry
func seed(ctx context.Context, storage repository.Storage, l logger.Logger) (seedResult, error) {
	var result seedResult

	credits := credit.NewService(storage, l, nil)
	phones := phone.NewService(storage)

	for _, sample := range sampleSellers {
		var s models.Seller

		// Seller and its funding commit together
		err := storage.InTx(ctx, func(storage repository.Storage) error {
			var err error
			s, err = ensureFundedSeller(ctx, storage, l, sample)
			return err
		})
		if err != nil {
			return result, fmt.Errorf("seller %s: %w", sample.Name, err)
		}

		balance, err := credits.GetBalance(ctx, s.ID)
		if err != nil {
			return result, err
		}
		s.Balance = balance
		result.Sellers = append(result.Sellers, s)
	}

	for _, number := range samplePhones {
		p, err := storage.PhoneNumber().GetPhoneNumberByNumber(ctx, number)
		if errors.Is(err, apperrors.ErrPhoneNumberNotFound) {
			p, err = phones.Create(ctx, number)
		}
		if err != nil {
			return result, fmt.Errorf("phone number %s: %w", number, err)
		}
		result.Phones = append(result.Phones, p)
	}

	reports, err := reconcile.NewChecker(storage, l, nil).VerifyAll(ctx)
	if err != nil {
		return result, err
	}
	result.Reports = reports

	return result, nil
}

// ensureFundedSeller finds or creates the seller and funds it unless a credit was ever applied
func ensureFundedSeller(ctx context.Context, storage repository.Storage, l logger.Logger, sample sampleSeller) (models.Seller, error) {
	s, err := storage.Seller().GetSellerByName(ctx, sample.Name)
	switch {
	case errors.Is(err, apperrors.ErrSellerNotFound):
		s, err = seller.NewService(storage).Create(ctx, sample.Name)
		if err != nil {
			return s, err
		}
		l.Info("seller created", "name", s.Name, "seller_id", s.ID)
	case err != nil:
		return s, err
	}

	entries, err := storage.Ledger().ListTransactions(ctx, s.ID)
	if err != nil {
		return s, err
	}
	for _, entry := range entries {
		if entry.Type == models.TransactionTypeCreditIncrease {
			l.Info("seller funded already, skipped", "name", s.Name, "seller_id", s.ID)
			return s, nil
		}
	}

	// Pending request left by an interrupted run is reused
	credits := credit.NewService(storage, l, nil)
	req, err := credits.CreateRequest(ctx, s.ID, sample.Balance)
	if err != nil {
		return s, err
	}
	if _, err := credits.Approve(ctx, req.ID); err != nil {
		return s, err
	}
	l.Info("seller funded", "name", s.Name, "amount", sample.Balance.StringFixed(2))

	return s, nil
}

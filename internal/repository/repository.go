package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/recharge/internal/models"
)

// Storage gives access to every repository over one connection or transaction
type Storage interface {
	Seller() SellerRepo
	CreditRequest() CreditRequestRepo
	PhoneNumber() PhoneNumberRepo
	RechargeSale() RechargeSaleRepo
	Ledger() LedgerRepo

	// Run fn in transaction. Commit if fn returns nil, rollback otherwise.
	// Repositories passed to fn share the transaction, so row locks taken there are held until fn returns
	InTx(ctx context.Context, fn func(Storage) error) error
}

type SellerRepo interface {
	CreateSeller(ctx context.Context, name string) (models.Seller, error)

	// Get seller by id
	// If lock is true the row is selected FOR UPDATE and stays locked until the transaction ends
	// If seller not found must return apperrors.ErrSellerNotFound
	GetSeller(ctx context.Context, sellerID uuid.UUID, lock bool) (models.Seller, error)
	GetSellerByName(ctx context.Context, name string) (models.Seller, error)
	ListSellers(ctx context.Context) ([]models.Seller, error)

	// Add signed delta to seller balance and return updated seller
	// Storage rejects a negative result with check constraint violation
	AddBalance(ctx context.Context, sellerID uuid.UUID, delta decimal.Decimal) (models.Seller, error)
}

type CreditRequestRepo interface {
	// Create pending request or return the existing pending one with the same seller and amount
	// created is false when existing request returned
	// Concurrent callers may both insert unless they hold the seller row lock
	CreatePending(ctx context.Context, sellerID uuid.UUID, amount decimal.Decimal) (req models.CreditRequest, created bool, err error)

	// If lock is true the row is selected FOR UPDATE
	// If request not found must return apperrors.ErrCreditRequestNotFound
	GetCreditRequest(ctx context.Context, requestID uuid.UUID, lock bool) (models.CreditRequest, error)

	// Set status; approvedAt has to be set for approved status only
	SetStatus(ctx context.Context, requestID uuid.UUID, status string, approvedAt *time.Time) (models.CreditRequest, error)

	// List seller requests newest first; empty statuses means any status
	ListCreditRequests(ctx context.Context, sellerID uuid.UUID, statuses []string) ([]models.CreditRequest, error)
}

type PhoneNumberRepo interface {
	// If number exists already must return apperrors.ErrPhoneNumberTaken
	CreatePhoneNumber(ctx context.Context, number string, active bool) (models.PhoneNumber, error)

	// If not found must return apperrors.ErrPhoneNumberNotFound
	GetPhoneNumber(ctx context.Context, phoneID uuid.UUID) (models.PhoneNumber, error)
	GetPhoneNumberByNumber(ctx context.Context, number string) (models.PhoneNumber, error)
	SetActive(ctx context.Context, phoneID uuid.UUID, active bool) (models.PhoneNumber, error)
}

type RechargeSaleRepo interface {
	// Database assigns Seq and CreatedAt
	CreateSale(ctx context.Context, sale models.RechargeSale) (models.RechargeSale, error)

	// Most recent first, at most limit sales
	ListSales(ctx context.Context, sellerID uuid.UUID, limit int) ([]models.RechargeSale, error)
}

// Append-only: there is no way to update or delete an entry
type LedgerRepo interface {
	Append(ctx context.Context, t models.CreditTransaction) (models.CreditTransaction, error)

	// Seller entries in commit order (oldest first)
	ListTransactions(ctx context.Context, sellerID uuid.UUID) ([]models.CreditTransaction, error)
}

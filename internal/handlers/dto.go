package handlers

import (
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/recharge/internal/models"
	"github.com/nkiryanov/recharge/internal/service/reconcile"
)

// Money goes out as fixed two digit string: "1000.00"

type creditRequestResponse struct {
	ID         uuid.UUID  `json:"id"`
	SellerID   uuid.UUID  `json:"seller_id"`
	Amount     string     `json:"amount"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	ApprovedAt *time.Time `json:"approved_at"`
}

func newCreditRequestResponse(r models.CreditRequest) creditRequestResponse {
	return creditRequestResponse{
		ID:         r.ID,
		SellerID:   r.SellerID,
		Amount:     r.Amount.StringFixed(2),
		Status:     r.Status,
		CreatedAt:  r.CreatedAt,
		ApprovedAt: r.ApprovedAt,
	}
}

type saleResponse struct {
	ID            uuid.UUID `json:"id"`
	SellerID      uuid.UUID `json:"seller_id"`
	PhoneNumberID uuid.UUID `json:"phone_number_id"`
	Amount        string    `json:"amount"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

func newSaleResponse(s models.RechargeSale) saleResponse {
	return saleResponse{
		ID:            s.ID,
		SellerID:      s.SellerID,
		PhoneNumberID: s.PhoneNumberID,
		Amount:        s.Amount.StringFixed(2),
		Status:        s.Status,
		CreatedAt:     s.CreatedAt,
	}
}

type sellerResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Balance   string    `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

func newSellerResponse(s models.Seller) sellerResponse {
	return sellerResponse{
		ID:        s.ID,
		Name:      s.Name,
		Balance:   s.Balance.StringFixed(2),
		CreatedAt: s.CreatedAt,
	}
}

type phoneNumberResponse struct {
	ID          uuid.UUID `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

func newPhoneNumberResponse(p models.PhoneNumber) phoneNumberResponse {
	return phoneNumberResponse{
		ID:          p.ID,
		PhoneNumber: p.Number,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
	}
}

type transactionResponse struct {
	ID              uuid.UUID `json:"id"`
	SellerID        uuid.UUID `json:"seller_id"`
	Amount          string    `json:"amount"`
	TransactionType string    `json:"transaction_type"`
	ReferenceID     uuid.UUID `json:"reference_id"`
	BalanceAfter    string    `json:"balance_after"`
	CreatedAt       time.Time `json:"created_at"`
}

func newTransactionResponse(t models.CreditTransaction) transactionResponse {
	return transactionResponse{
		ID:              t.ID,
		SellerID:        t.SellerID,
		Amount:          t.Amount.StringFixed(2),
		TransactionType: t.Type,
		ReferenceID:     t.ReferenceID,
		BalanceAfter:    t.BalanceAfter.StringFixed(2),
		CreatedAt:       t.CreatedAt,
	}
}

type reportResponse struct {
	SellerID          uuid.UUID  `json:"seller_id"`
	CurrentBalance    string     `json:"current_balance"`
	CalculatedBalance string     `json:"calculated_balance"`
	IsMatch           bool       `json:"is_match"`
	TransactionCount  int64      `json:"transaction_count"`
	ChainIntact       bool       `json:"chain_intact"`
	BrokenAt          *uuid.UUID `json:"broken_at,omitempty"`
}

func newReportResponse(r reconcile.Report) reportResponse {
	return reportResponse{
		SellerID:          r.SellerID,
		CurrentBalance:    r.CurrentBalance.StringFixed(2),
		CalculatedBalance: r.CalculatedBalance.StringFixed(2),
		IsMatch:           r.IsMatch,
		TransactionCount:  r.TransactionCount,
		ChainIntact:       r.ChainIntact,
		BrokenAt:          r.BrokenAt,
	}
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	CreditRequestPending  = "pending"
	CreditRequestApproved = "approved"
	CreditRequestRejected = "rejected"
)

type CreditRequest struct {
	ID         uuid.UUID
	SellerID   uuid.UUID
	Amount     decimal.Decimal
	Status     string
	CreatedAt  time.Time
	ApprovedAt *time.Time // set only when status is approved
}

func (r CreditRequest) IsPending() bool {
	return r.Status == CreditRequestPending
}

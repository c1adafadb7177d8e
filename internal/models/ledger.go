package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TransactionTypeCreditIncrease = "credit_increase"
	TransactionTypeRechargeSale   = "recharge_sale"
)

// CreditTransaction is an append-only ledger entry.
// Amount is signed: positive for credit increase, negative for recharge sale.
type CreditTransaction struct {
	ID           uuid.UUID
	Seq          int64 // commit order within the ledger, assigned by db
	SellerID     uuid.UUID
	Amount       decimal.Decimal
	Type         string
	ReferenceID  uuid.UUID // credit request or recharge sale id
	BalanceAfter decimal.Decimal
	CreatedAt    time.Time
}

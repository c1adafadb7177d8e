package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const RechargeSaleCompleted = "completed"

type RechargeSale struct {
	ID            uuid.UUID
	Seq           int64 // insertion order, assigned by db
	SellerID      uuid.UUID
	PhoneNumberID uuid.UUID
	Amount        decimal.Decimal
	Status        string
	CreatedAt     time.Time // assigned by db
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Seller struct {
	ID        uuid.UUID
	Name      string
	Balance   decimal.Decimal // never negative, enforced by db check constraint as well
	CreatedAt time.Time
}

type PhoneNumber struct {
	ID        uuid.UUID
	Number    string
	IsActive  bool
	CreatedAt time.Time
}

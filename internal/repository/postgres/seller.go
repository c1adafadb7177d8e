package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/recharge/internal/apperrors"
	"github.com/nkiryanov/recharge/internal/models"
)

type SellerRepo struct {
	DB DBTX
}

const sellerColumns = `id, name, balance, created_at`

const createSeller = `-- name: CreateSeller
INSERT INTO sellers (id, name, balance, created_at)
VALUES ($1, $2, 0, $3)
RETURNING ` + sellerColumns

func (r *SellerRepo) CreateSeller(ctx context.Context, name string) (models.Seller, error) {
	rows, _ := r.DB.Query(ctx, createSeller, uuid.New(), name, time.Now())
	seller, err := pgx.CollectOneRow(rows, rowToSeller)
	if err != nil {
		return seller, fmt.Errorf("db error: %w", err)
	}

	return seller, nil
}

const getSeller = `-- name: GetSeller
SELECT ` + sellerColumns + ` FROM sellers
WHERE id = $1
`

const getSellerForUpdate = getSeller + `FOR UPDATE`

func (r *SellerRepo) GetSeller(ctx context.Context, sellerID uuid.UUID, lock bool) (models.Seller, error) {
	query := getSeller
	if lock {
		query = getSellerForUpdate
	}

	rows, _ := r.DB.Query(ctx, query, sellerID)
	return collectSeller(rows)
}

const getSellerByName = `-- name: GetSellerByName
SELECT ` + sellerColumns + ` FROM sellers
WHERE name = $1
ORDER BY created_at
LIMIT 1
`

func (r *SellerRepo) GetSellerByName(ctx context.Context, name string) (models.Seller, error) {
	rows, _ := r.DB.Query(ctx, getSellerByName, name)
	return collectSeller(rows)
}

const listSellers = `-- name: ListSellers
SELECT ` + sellerColumns + ` FROM sellers
ORDER BY created_at, id
`

func (r *SellerRepo) ListSellers(ctx context.Context) ([]models.Seller, error) {
	rows, _ := r.DB.Query(ctx, listSellers)
	sellers, err := pgx.CollectRows(rows, rowToSeller)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return sellers, nil
}

const addBalance = `-- name: AddBalance
UPDATE sellers
SET balance = balance + $2
WHERE id = $1
RETURNING ` + sellerColumns

func (r *SellerRepo) AddBalance(ctx context.Context, sellerID uuid.UUID, delta decimal.Decimal) (models.Seller, error) {
	rows, _ := r.DB.Query(ctx, addBalance, sellerID, delta)
	return collectSeller(rows)
}

func collectSeller(rows pgx.Rows) (models.Seller, error) {
	seller, err := pgx.CollectOneRow(rows, rowToSeller)

	switch {
	case err == nil:
		return seller, nil
	case errors.Is(err, pgx.ErrNoRows):
		return seller, apperrors.ErrSellerNotFound
	default:
		return seller, fmt.Errorf("db error: %w", err)
	}
}

func rowToSeller(row pgx.CollectableRow) (models.Seller, error) {
	var s models.Seller
	err := row.Scan(&s.ID, &s.Name, &s.Balance, &s.CreatedAt)
	return s, err
}

package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/recharge/internal/models"
)

type RechargeSaleRepo struct {
	DB DBTX
}

const saleColumns = `id, seq, seller_id, phone_number_id, amount, status, created_at`

const createSale = `-- name: CreateSale
INSERT INTO recharge_sales (id, seller_id, phone_number_id, amount, status)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + saleColumns

func (r *RechargeSaleRepo) CreateSale(ctx context.Context, s models.RechargeSale) (models.RechargeSale, error) {
	rows, _ := r.DB.Query(ctx, createSale, s.ID, s.SellerID, s.PhoneNumberID, s.Amount, s.Status)
	sale, err := pgx.CollectOneRow(rows, rowToSale)
	if err != nil {
		return sale, fmt.Errorf("db error: %w", err)
	}

	return sale, nil
}

const listSales = `-- name: ListSales
SELECT ` + saleColumns + ` FROM recharge_sales
WHERE seller_id = $1
ORDER BY seq DESC
LIMIT $2
`

func (r *RechargeSaleRepo) ListSales(ctx context.Context, sellerID uuid.UUID, limit int) ([]models.RechargeSale, error) {
	rows, _ := r.DB.Query(ctx, listSales, sellerID, limit)
	sales, err := pgx.CollectRows(rows, rowToSale)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return sales, nil
}

func rowToSale(row pgx.CollectableRow) (models.RechargeSale, error) {
	var s models.RechargeSale
	err := row.Scan(&s.ID, &s.Seq, &s.SellerID, &s.PhoneNumberID, &s.Amount, &s.Status, &s.CreatedAt)
	return s, err
}

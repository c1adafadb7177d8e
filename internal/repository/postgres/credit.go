package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/recharge/internal/apperrors"
	"github.com/nkiryanov/recharge/internal/models"
)

type CreditRequestRepo struct {
	DB DBTX
}

const creditRequestColumns = `id, seller_id, amount, status, created_at, approved_at`

// Insert pending request unless there is one for the same seller and amount already
// Return the inserted or the oldest existing row
const createPendingRequest = `-- name: CreatePendingRequest
WITH existing AS (
	SELECT ` + creditRequestColumns + ` FROM credit_requests
	WHERE seller_id = $2 AND amount = $3 AND status = 'pending'
	ORDER BY created_at, id
	LIMIT 1
), inserted AS (
	INSERT INTO credit_requests (id, seller_id, amount, status, created_at)
	SELECT $1, $2, $3, 'pending', $4
	WHERE NOT EXISTS (SELECT 1 FROM existing)
	RETURNING ` + creditRequestColumns + `
)
SELECT ` + creditRequestColumns + ` FROM inserted
UNION ALL
SELECT ` + creditRequestColumns + ` FROM existing
`

func (r *CreditRequestRepo) CreatePending(ctx context.Context, sellerID uuid.UUID, amount decimal.Decimal) (models.CreditRequest, bool, error) {
	requestID := uuid.New()

	rows, _ := r.DB.Query(ctx, createPendingRequest, requestID, sellerID, amount, time.Now())
	req, err := pgx.CollectOneRow(rows, rowToCreditRequest)

	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return req, req.ID == requestID, nil
	case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation:
		return req, false, apperrors.ErrSellerNotFound
	default:
		return req, false, fmt.Errorf("db error: %w", err)
	}
}

const getCreditRequest = `-- name: GetCreditRequest
SELECT ` + creditRequestColumns + ` FROM credit_requests
WHERE id = $1
`

const getCreditRequestForUpdate = getCreditRequest + `FOR UPDATE`

func (r *CreditRequestRepo) GetCreditRequest(ctx context.Context, requestID uuid.UUID, lock bool) (models.CreditRequest, error) {
	query := getCreditRequest
	if lock {
		query = getCreditRequestForUpdate
	}

	rows, _ := r.DB.Query(ctx, query, requestID)
	return collectCreditRequest(rows)
}

const setCreditRequestStatus = `-- name: SetCreditRequestStatus
UPDATE credit_requests
SET status = $2, approved_at = $3
WHERE id = $1
RETURNING ` + creditRequestColumns

func (r *CreditRequestRepo) SetStatus(ctx context.Context, requestID uuid.UUID, status string, approvedAt *time.Time) (models.CreditRequest, error) {
	rows, _ := r.DB.Query(ctx, setCreditRequestStatus, requestID, status, approvedAt)
	return collectCreditRequest(rows)
}

const listCreditRequests = `-- name: ListCreditRequests
SELECT ` + creditRequestColumns + ` FROM credit_requests
WHERE seller_id = $1 AND (cardinality($2::text[]) = 0 OR status = ANY($2::text[]))
ORDER BY created_at DESC, id
`

func (r *CreditRequestRepo) ListCreditRequests(ctx context.Context, sellerID uuid.UUID, statuses []string) ([]models.CreditRequest, error) {
	if statuses == nil {
		statuses = []string{}
	}

	rows, _ := r.DB.Query(ctx, listCreditRequests, sellerID, statuses)
	requests, err := pgx.CollectRows(rows, rowToCreditRequest)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return requests, nil
}

func collectCreditRequest(rows pgx.Rows) (models.CreditRequest, error) {
	req, err := pgx.CollectOneRow(rows, rowToCreditRequest)

	switch {
	case err == nil:
		return req, nil
	case errors.Is(err, pgx.ErrNoRows):
		return req, apperrors.ErrCreditRequestNotFound
	default:
		return req, fmt.Errorf("db error: %w", err)
	}
}

func rowToCreditRequest(row pgx.CollectableRow) (models.CreditRequest, error) {
	var r models.CreditRequest
	err := row.Scan(&r.ID, &r.SellerID, &r.Amount, &r.Status, &r.CreatedAt, &r.ApprovedAt)
	return r, err
}

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

	"github.com/nkiryanov/recharge/internal/apperrors"
	"github.com/nkiryanov/recharge/internal/models"
)

type PhoneNumberRepo struct {
	DB DBTX
}

const phoneColumns = `id, phone_number, is_active, created_at`

const createPhoneNumber = `-- name: CreatePhoneNumber
INSERT INTO phone_numbers (id, phone_number, is_active, created_at)
VALUES ($1, $2, $3, $4)
RETURNING ` + phoneColumns

func (r *PhoneNumberRepo) CreatePhoneNumber(ctx context.Context, number string, active bool) (models.PhoneNumber, error) {
	rows, _ := r.DB.Query(ctx, createPhoneNumber, uuid.New(), number, active, time.Now())
	phone, err := pgx.CollectOneRow(rows, rowToPhoneNumber)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return phone, apperrors.ErrPhoneNumberTaken
		}

		return phone, fmt.Errorf("db error: %w", err)
	}

	return phone, nil
}

const getPhoneNumber = `-- name: GetPhoneNumber
SELECT ` + phoneColumns + ` FROM phone_numbers
WHERE id = $1
`

func (r *PhoneNumberRepo) GetPhoneNumber(ctx context.Context, phoneID uuid.UUID) (models.PhoneNumber, error) {
	rows, _ := r.DB.Query(ctx, getPhoneNumber, phoneID)
	return collectPhoneNumber(rows)
}

const getPhoneNumberByNumber = `-- name: GetPhoneNumberByNumber
SELECT ` + phoneColumns + ` FROM phone_numbers
WHERE phone_number = $1
`

func (r *PhoneNumberRepo) GetPhoneNumberByNumber(ctx context.Context, number string) (models.PhoneNumber, error) {
	rows, _ := r.DB.Query(ctx, getPhoneNumberByNumber, number)
	return collectPhoneNumber(rows)
}

const setPhoneActive = `-- name: SetPhoneActive
UPDATE phone_numbers
SET is_active = $2
WHERE id = $1
RETURNING ` + phoneColumns

func (r *PhoneNumberRepo) SetActive(ctx context.Context, phoneID uuid.UUID, active bool) (models.PhoneNumber, error) {
	rows, _ := r.DB.Query(ctx, setPhoneActive, phoneID, active)
	return collectPhoneNumber(rows)
}

func collectPhoneNumber(rows pgx.Rows) (models.PhoneNumber, error) {
	phone, err := pgx.CollectOneRow(rows, rowToPhoneNumber)

	switch {
	case err == nil:
		return phone, nil
	case errors.Is(err, pgx.ErrNoRows):
		return phone, apperrors.ErrPhoneNumberNotFound
	default:
		return phone, fmt.Errorf("db error: %w", err)
	}
}

func rowToPhoneNumber(row pgx.CollectableRow) (models.PhoneNumber, error) {
	var p models.PhoneNumber
	err := row.Scan(&p.ID, &p.Number, &p.IsActive, &p.CreatedAt)
	return p, err
}

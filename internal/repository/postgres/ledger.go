package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/recharge/internal/models"
)

type LedgerRepo struct {
	DB DBTX
}

const transactionColumns = `id, seq, seller_id, amount, transaction_type, reference_id, balance_after, created_at`

const appendTransaction = `-- name: AppendTransaction
INSERT INTO credit_transactions (id, seller_id, amount, transaction_type, reference_id, balance_after)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + transactionColumns

func (r *LedgerRepo) Append(ctx context.Context, t models.CreditTransaction) (models.CreditTransaction, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, appendTransaction, t.ID, t.SellerID, t.Amount, t.Type, t.ReferenceID, t.BalanceAfter)
	transaction, err := pgx.CollectOneRow(rows, rowToTransaction)
	if err != nil {
		return transaction, fmt.Errorf("db error: %w", err)
	}

	return transaction, nil
}

const listTransactions = `-- name: ListTransactions
SELECT ` + transactionColumns + ` FROM credit_transactions
WHERE seller_id = $1
ORDER BY seq
`

func (r *LedgerRepo) ListTransactions(ctx context.Context, sellerID uuid.UUID) ([]models.CreditTransaction, error) {
	rows, _ := r.DB.Query(ctx, listTransactions, sellerID)
	transactions, err := pgx.CollectRows(rows, rowToTransaction)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return transactions, nil
}

func rowToTransaction(row pgx.CollectableRow) (models.CreditTransaction, error) {
	var t models.CreditTransaction
	err := row.Scan(&t.ID, &t.Seq, &t.SellerID, &t.Amount, &t.Type, &t.ReferenceID, &t.BalanceAfter, &t.CreatedAt)
	return t, err
}

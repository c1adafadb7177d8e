package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/recharge/internal/repository"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx
// Begin on pgx.Tx creates savepoint, so storage over transaction may be nested
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Storage struct {
	db DBTX
}

func NewStorage(db DBTX) repository.Storage {
	return &Storage{db: db}
}

func (s *Storage) Seller() repository.SellerRepo {
	return &SellerRepo{DB: s.db}
}

func (s *Storage) CreditRequest() repository.CreditRequestRepo {
	return &CreditRequestRepo{DB: s.db}
}

func (s *Storage) PhoneNumber() repository.PhoneNumberRepo {
	return &PhoneNumberRepo{DB: s.db}
}

func (s *Storage) RechargeSale() repository.RechargeSaleRepo {
	return &RechargeSaleRepo{DB: s.db}
}

func (s *Storage) Ledger() repository.LedgerRepo {
	return &LedgerRepo{DB: s.db}
}

func (s *Storage) InTx(ctx context.Context, fn func(repository.Storage) error) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("db tx error: %w", err)
	}

	defer func() {
		// Panic must not release half of the writes
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}

		switch err {
		case nil:
			if cErr := tx.Commit(ctx); cErr != nil {
				err = fmt.Errorf("db commit error: %w", cErr)
			}
		default:
			_ = tx.Rollback(ctx)
		}
	}()

	err = fn(NewStorage(tx))

	return err
}

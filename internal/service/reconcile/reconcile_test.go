package reconcile

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/recharge/internal/apperrors"
	"github.com/nkiryanov/recharge/internal/models"
	"github.com/nkiryanov/recharge/internal/repository/postgres"
	"github.com/nkiryanov/recharge/internal/service/charge"
	"github.com/nkiryanov/recharge/internal/service/credit"
	"github.com/nkiryanov/recharge/internal/testutil"
)

func TestChecker(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Seller with 1000 credited and 250.50 charged
	inTx := func(t *testing.T, fn func(c *Checker, tx pgx.Tx, seller models.Seller)) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			seller, err := storage.Seller().CreateSeller(t.Context(), "Seller 1")
			require.NoError(t, err)
			phone, err := storage.PhoneNumber().CreatePhoneNumber(t.Context(), "09123456789", true)
			require.NoError(t, err)

			credits := credit.NewService(storage, nil, nil)
			req, err := credits.CreateRequest(t.Context(), seller.ID, decimal.NewFromInt(1000))
			require.NoError(t, err)
			_, err = credits.Approve(t.Context(), req.ID)
			require.NoError(t, err)
			_, err = charge.NewService(storage, nil, nil).Charge(t.Context(), seller.ID, phone.ID, decimal.RequireFromString("250.50"))
			require.NoError(t, err)

			fn(NewChecker(storage, nil, nil), tx, seller)
		})
	}

	t.Run("consistent seller match", func(t *testing.T) {
		inTx(t, func(c *Checker, _ pgx.Tx, seller models.Seller) {
			report, err := c.Verify(t.Context(), seller.ID)

			require.NoError(t, err)
			require.Equal(t, seller.ID, report.SellerID)
			require.True(t, report.IsMatch)
			require.True(t, report.ChainIntact)
			require.Nil(t, report.BrokenAt)
			require.EqualValues(t, 2, report.TransactionCount)
			require.True(t, report.CurrentBalance.Equal(decimal.RequireFromString("749.50")))
			require.True(t, report.CalculatedBalance.Equal(report.CurrentBalance))
		})
	})

	t.Run("seller without ledger match", func(t *testing.T) {
		inTx(t, func(c *Checker, tx pgx.Tx, _ models.Seller) {
			empty, err := postgres.NewStorage(tx).Seller().CreateSeller(t.Context(), "Seller 2")
			require.NoError(t, err)

			report, err := c.Verify(t.Context(), empty.ID)

			require.NoError(t, err)
			require.True(t, report.IsMatch)
			require.Zero(t, report.TransactionCount)
			require.True(t, report.CalculatedBalance.IsZero())
		})
	})

	t.Run("tampered balance mismatch", func(t *testing.T) {
		inTx(t, func(c *Checker, tx pgx.Tx, seller models.Seller) {
			_, err := tx.Exec(t.Context(), `UPDATE sellers SET balance = balance + 0.01 WHERE id = $1`, seller.ID)
			require.NoError(t, err)

			report, err := c.Verify(t.Context(), seller.ID)

			require.NoError(t, err)
			require.False(t, report.IsMatch, "one cent difference is a mismatch")
			require.True(t, report.ChainIntact, "ledger itself is intact")
		})
	})

	t.Run("tampered ledger entry breaks chain", func(t *testing.T) {
		inTx(t, func(c *Checker, tx pgx.Tx, seller models.Seller) {
			var first uuid.UUID
			err := tx.QueryRow(t.Context(),
				`UPDATE credit_transactions SET amount = amount + 1
				WHERE id = (SELECT id FROM credit_transactions WHERE seller_id = $1 ORDER BY seq LIMIT 1)
				RETURNING id`, seller.ID,
			).Scan(&first)
			require.NoError(t, err)

			report, err := c.Verify(t.Context(), seller.ID)

			require.NoError(t, err)
			require.False(t, report.IsMatch)
			require.False(t, report.ChainIntact)
			require.NotNil(t, report.BrokenAt)
			require.Equal(t, first, *report.BrokenAt)
		})
	})

	t.Run("not existed seller fail", func(t *testing.T) {
		inTx(t, func(c *Checker, _ pgx.Tx, _ models.Seller) {
			_, err := c.Verify(t.Context(), uuid.New())

			require.ErrorIs(t, err, apperrors.ErrSellerNotFound)
		})
	})

	t.Run("VerifyAll", func(t *testing.T) {
		inTx(t, func(c *Checker, tx pgx.Tx, seller models.Seller) {
			other, err := postgres.NewStorage(tx).Seller().CreateSeller(t.Context(), "Seller 2")
			require.NoError(t, err)

			reports, err := c.VerifyAll(t.Context())

			require.NoError(t, err)
			require.Len(t, reports, 2)
			ids := []uuid.UUID{reports[0].SellerID, reports[1].SellerID}
			require.ElementsMatch(t, []uuid.UUID{seller.ID, other.ID}, ids)
			for _, report := range reports {
				require.True(t, report.IsMatch)
			}
		})
	})
}

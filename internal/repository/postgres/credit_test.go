package postgres

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/recharge/internal/apperrors"
	"github.com/nkiryanov/recharge/internal/models"
	"github.com/nkiryanov/recharge/internal/repository"
	"github.com/nkiryanov/recharge/internal/testutil"
)

func TestCreditRequests(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Create transaction and storage on the transaction
	// May be called several times(aka transaction in transaction)
	inTx := func(t *testing.T, outerTx DBTX, fn func(pgx.Tx, repository.Storage)) {
		testutil.InTx(outerTx, t, func(innerTx pgx.Tx) {
			fn(innerTx, NewStorage(innerTx))
		})
	}

	t.Run("CreatePending", func(t *testing.T) {
		inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			seller, err := storage.Seller().CreateSeller(t.Context(), "Seller 1")
			require.NoError(t, err)

			t.Run("create ok", func(t *testing.T) {
				inTx(t, tx, func(_ pgx.Tx, storage repository.Storage) {
					req, created, err := storage.CreditRequest().CreatePending(t.Context(), seller.ID, decimal.NewFromInt(100000))

					require.NoError(t, err, "request has to be created ok")
					require.True(t, created)
					require.NotEqual(t, uuid.Nil, req.ID)
					require.Equal(t, seller.ID, req.SellerID)
					require.Equal(t, models.CreditRequestPending, req.Status)
					require.True(t, req.Amount.Equal(decimal.NewFromInt(100000)))
					require.Nil(t, req.ApprovedAt, "pending request is not approved")
					require.WithinDuration(t, time.Now(), req.CreatedAt, time.Second)
				})
			})

			t.Run("create twice returns existing", func(t *testing.T) {
				inTx(t, tx, func(_ pgx.Tx, storage repository.Storage) {
					first, _, err := storage.CreditRequest().CreatePending(t.Context(), seller.ID, decimal.NewFromInt(100))
					require.NoError(t, err)

					second, created, err := storage.CreditRequest().CreatePending(t.Context(), seller.ID, decimal.RequireFromString("100.00"))

					require.NoError(t, err)
					require.False(t, created, "existing pending request should be returned")
					require.Equal(t, first.ID, second.ID)
				})
			})

			t.Run("different amount is new request", func(t *testing.T) {
				inTx(t, tx, func(_ pgx.Tx, storage repository.Storage) {
					first, _, err := storage.CreditRequest().CreatePending(t.Context(), seller.ID, decimal.NewFromInt(100))
					require.NoError(t, err)

					second, created, err := storage.CreditRequest().CreatePending(t.Context(), seller.ID, decimal.NewFromInt(200))

					require.NoError(t, err)
					require.True(t, created)
					require.NotEqual(t, first.ID, second.ID)
				})
			})

			t.Run("not pending request does not block new one", func(t *testing.T) {
				inTx(t, tx, func(_ pgx.Tx, storage repository.Storage) {
					first, _, err := storage.CreditRequest().CreatePending(t.Context(), seller.ID, decimal.NewFromInt(100))
					require.NoError(t, err)
					now := time.Now()
					_, err = storage.CreditRequest().SetStatus(t.Context(), first.ID, models.CreditRequestApproved, &now)
					require.NoError(t, err)

					second, created, err := storage.CreditRequest().CreatePending(t.Context(), seller.ID, decimal.NewFromInt(100))

					require.NoError(t, err)
					require.True(t, created)
					require.NotEqual(t, first.ID, second.ID)
				})
			})

			t.Run("not existed seller", func(t *testing.T) {
				inTx(t, tx, func(_ pgx.Tx, storage repository.Storage) {
					_, _, err := storage.CreditRequest().CreatePending(t.Context(), uuid.New(), decimal.NewFromInt(100))

					require.ErrorIs(t, err, apperrors.ErrSellerNotFound)
				})
			})
		})
	})

	t.Run("CreatePending concurrent under seller lock", func(t *testing.T) {
		storage := NewStorage(pg.Pool)
		seller, err := storage.Seller().CreateSeller(t.Context(), "Concurrent Seller")
		require.NoError(t, err)

		const callers = 10
		ids := make([]uuid.UUID, callers)
		errs := make([]error, callers)

		var wg sync.WaitGroup
		for i := range callers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = storage.InTx(t.Context(), func(storage repository.Storage) error {
					if _, err := storage.Seller().GetSeller(t.Context(), seller.ID, true); err != nil {
						return err
					}
					req, _, err := storage.CreditRequest().CreatePending(t.Context(), seller.ID, decimal.NewFromInt(500))
					ids[i] = req.ID
					return err
				})
			}()
		}
		wg.Wait()

		for i := range callers {
			require.NoError(t, errs[i])
			require.Equal(t, ids[0], ids[i], "all callers should get the same request")
		}

		pending, err := storage.CreditRequest().ListCreditRequests(t.Context(), seller.ID, []string{models.CreditRequestPending})
		require.NoError(t, err)
		require.Len(t, pending, 1)
	})

	t.Run("GetCreditRequest and SetStatus", func(t *testing.T) {
		inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			seller, err := storage.Seller().CreateSeller(t.Context(), "Seller 1")
			require.NoError(t, err)
			req, _, err := storage.CreditRequest().CreatePending(t.Context(), seller.ID, decimal.NewFromInt(100))
			require.NoError(t, err)

			t.Run("get with lock", func(t *testing.T) {
				inTx(t, tx, func(_ pgx.Tx, storage repository.Storage) {
					got, err := storage.CreditRequest().GetCreditRequest(t.Context(), req.ID, true)

					require.NoError(t, err)
					require.Equal(t, req.ID, got.ID)
					require.True(t, got.IsPending())
				})
			})

			t.Run("get not existed", func(t *testing.T) {
				inTx(t, tx, func(_ pgx.Tx, storage repository.Storage) {
					_, err := storage.CreditRequest().GetCreditRequest(t.Context(), uuid.New(), false)

					require.ErrorIs(t, err, apperrors.ErrCreditRequestNotFound)
				})
			})

			t.Run("approve", func(t *testing.T) {
				inTx(t, tx, func(_ pgx.Tx, storage repository.Storage) {
					now := time.Now()
					got, err := storage.CreditRequest().SetStatus(t.Context(), req.ID, models.CreditRequestApproved, &now)

					require.NoError(t, err)
					require.Equal(t, models.CreditRequestApproved, got.Status)
					require.NotNil(t, got.ApprovedAt)
					require.WithinDuration(t, now, *got.ApprovedAt, time.Millisecond)
				})
			})

			t.Run("approved without approved_at rejected by storage", func(t *testing.T) {
				inTx(t, tx, func(_ pgx.Tx, storage repository.Storage) {
					_, err := storage.CreditRequest().SetStatus(t.Context(), req.ID, models.CreditRequestApproved, nil)

					require.Error(t, err)
				})
			})

			t.Run("list by status", func(t *testing.T) {
				inTx(t, tx, func(_ pgx.Tx, storage repository.Storage) {
					_, err := storage.CreditRequest().SetStatus(t.Context(), req.ID, models.CreditRequestRejected, nil)
					require.NoError(t, err)

					all, err := storage.CreditRequest().ListCreditRequests(t.Context(), seller.ID, nil)
					require.NoError(t, err)
					require.Len(t, all, 1)

					pending, err := storage.CreditRequest().ListCreditRequests(t.Context(), seller.ID, []string{models.CreditRequestPending})
					require.NoError(t, err)
					require.Empty(t, pending)
				})
			})
		})
	})
}

func TestPhoneNumbersAndSales(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	inTx := func(t *testing.T, outerTx DBTX, fn func(pgx.Tx, repository.Storage)) {
		testutil.InTx(outerTx, t, func(innerTx pgx.Tx) {
			fn(innerTx, NewStorage(innerTx))
		})
	}

	t.Run("PhoneNumber", func(t *testing.T) {
		inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			phone, err := storage.PhoneNumber().CreatePhoneNumber(t.Context(), "09123456789", true)
			require.NoError(t, err)
			require.True(t, phone.IsActive)

			t.Run("duplicate number", func(t *testing.T) {
				inTx(t, tx, func(_ pgx.Tx, storage repository.Storage) {
					_, err := storage.PhoneNumber().CreatePhoneNumber(t.Context(), "09123456789", true)

					require.ErrorIs(t, err, apperrors.ErrPhoneNumberTaken)
				})
			})

			t.Run("get by id and number", func(t *testing.T) {
				inTx(t, tx, func(_ pgx.Tx, storage repository.Storage) {
					byID, err := storage.PhoneNumber().GetPhoneNumber(t.Context(), phone.ID)
					require.NoError(t, err)
					byNumber, err := storage.PhoneNumber().GetPhoneNumberByNumber(t.Context(), "09123456789")
					require.NoError(t, err)

					require.Equal(t, phone.ID, byID.ID)
					require.Equal(t, phone.ID, byNumber.ID)

					_, err = storage.PhoneNumber().GetPhoneNumber(t.Context(), uuid.New())
					require.ErrorIs(t, err, apperrors.ErrPhoneNumberNotFound)
				})
			})

			t.Run("deactivate", func(t *testing.T) {
				inTx(t, tx, func(_ pgx.Tx, storage repository.Storage) {
					got, err := storage.PhoneNumber().SetActive(t.Context(), phone.ID, false)

					require.NoError(t, err)
					require.False(t, got.IsActive)
				})
			})
		})
	})

	t.Run("RechargeSale", func(t *testing.T) {
		inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			seller, err := storage.Seller().CreateSeller(t.Context(), "Seller 1")
			require.NoError(t, err)
			phone, err := storage.PhoneNumber().CreatePhoneNumber(t.Context(), "09123456789", true)
			require.NoError(t, err)

			// CreatedAt set by caller is ignored: db clock and insertion order win
			newSale := func(amount int64, createdAt time.Time) models.RechargeSale {
				return models.RechargeSale{
					ID:            uuid.New(),
					SellerID:      seller.ID,
					PhoneNumberID: phone.ID,
					Amount:        decimal.NewFromInt(amount),
					Status:        models.RechargeSaleCompleted,
					CreatedAt:     createdAt,
				}
			}

			older, err := storage.RechargeSale().CreateSale(t.Context(), newSale(10, testutil.MustParseTime(t, "2030-11-02 15:04:05Z")))
			require.NoError(t, err)
			newer, err := storage.RechargeSale().CreateSale(t.Context(), newSale(20, testutil.MustParseTime(t, "2024-11-01 15:04:05Z")))
			require.NoError(t, err)

			t.Run("db assigns order and time", func(t *testing.T) {
				require.Greater(t, newer.Seq, older.Seq)
				require.False(t, newer.CreatedAt.Before(older.CreatedAt))
				require.True(t, older.CreatedAt.Before(testutil.MustParseTime(t, "2030-01-01 00:00:00Z")), "caller time must be ignored")
			})

			t.Run("most recent first", func(t *testing.T) {
				sales, err := storage.RechargeSale().ListSales(t.Context(), seller.ID, 100)

				require.NoError(t, err)
				require.Len(t, sales, 2)
				require.Equal(t, newer.ID, sales[0].ID)
				require.Equal(t, older.ID, sales[1].ID)
			})

			t.Run("limit", func(t *testing.T) {
				sales, err := storage.RechargeSale().ListSales(t.Context(), seller.ID, 1)

				require.NoError(t, err)
				require.Len(t, sales, 1)
				require.Equal(t, newer.ID, sales[0].ID)
			})

			t.Run("zero amount rejected by storage", func(t *testing.T) {
				inTx(t, tx, func(_ pgx.Tx, storage repository.Storage) {
					_, err := storage.RechargeSale().CreateSale(t.Context(), newSale(0, time.Now()))

					require.Error(t, err)
				})
			})
		})
	})
}

package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/recharge/internal/idempotency"
	"github.com/nkiryanov/recharge/internal/logger"
	"github.com/nkiryanov/recharge/internal/repository"
	"github.com/nkiryanov/recharge/internal/repository/postgres"
	"github.com/nkiryanov/recharge/internal/service/auth"
	"github.com/nkiryanov/recharge/internal/service/charge"
	"github.com/nkiryanov/recharge/internal/service/credit"
	"github.com/nkiryanov/recharge/internal/service/phone"
	"github.com/nkiryanov/recharge/internal/service/reconcile"
	"github.com/nkiryanov/recharge/internal/service/seller"
	"github.com/nkiryanov/recharge/internal/testutil"
)

type testServices struct {
	Storage    repository.Storage
	Credit     *credit.CreditService
	Seller     *seller.SellerService
	Phone      *phone.PhoneService
	AdminToken string
}

// Run server with every service bound to one db transaction.
// The transaction is passed to inner function, so testutil.InTx may be used with it
func serveInTx(dbpool *pgxpool.Pool, t *testing.T, fn func(tx pgx.Tx, srvURL string, s testServices)) {
	testutil.InTx(dbpool, t, func(tx pgx.Tx) {
		storage := postgres.NewStorage(tx)

		tokens, err := auth.New(auth.Config{SecretKey: "test-secret"})
		require.NoError(t, err, "token manager should be created without errors")
		token, err := tokens.Issue("ops")
		require.NoError(t, err)

		services := testServices{
			Storage:    storage,
			Credit:     credit.NewService(storage, nil, nil),
			Seller:     seller.NewService(storage),
			Phone:      phone.NewService(storage),
			AdminToken: token.Value,
		}

		router := NewRouter(Services{
			Credit:      services.Credit,
			Charge:      charge.NewService(storage, nil, nil),
			Reconcile:   reconcile.NewChecker(storage, nil, nil),
			Seller:      services.Seller,
			Phone:       services.Phone,
			Tokens:      tokens,
			Idempotency: newMemoryStore(),
		}, logger.NewNoOpLogger())

		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(tx, srv.URL, services)
	})
}

type testResponse struct {
	Status int
	Header http.Header
	Body   string
}

// Decode response body into T
func decodeBody[T any](t *testing.T, resp testResponse) T {
	var v T
	require.NoErrorf(t, json.Unmarshal([]byte(resp.Body), &v), "body is not valid json: %s", resp.Body)
	return v
}

func doRequest(t *testing.T, method string, url string, body string, headers map[string]string) testResponse {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err, "failed to create request")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err, "failed to send request")
	defer resp.Body.Close() // nolint:errcheck

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")

	return testResponse{Status: resp.StatusCode, Header: resp.Header, Body: string(b)}
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// In-memory idempotency store
type memoryStore struct {
	mu   sync.Mutex
	keys map[string]*idempotency.Response
}

func newMemoryStore() *memoryStore {
	return &memoryStore{keys: make(map[string]*idempotency.Response)}
}

func (s *memoryStore) Reserve(_ context.Context, key string) (*idempotency.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved, ok := s.keys[key]
	switch {
	case !ok:
		s.keys[key] = nil
		return nil, nil
	case saved == nil:
		return nil, idempotency.ErrInFlight
	default:
		return saved, nil
	}
}

func (s *memoryStore) Save(_ context.Context, key string, resp idempotency.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key] = &resp
	return nil
}

func (s *memoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	return nil
}

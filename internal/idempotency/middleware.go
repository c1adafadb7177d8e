package idempotency

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"

	"github.com/nkiryanov/recharge/internal/handlers/render"
	"github.com/nkiryanov/recharge/internal/logger"
)

const (
	HeaderKey      = "Idempotency-Key"
	HeaderReplayed = "Idempotent-Replayed"

	maxKeyLength = 255
	maxBodySize  = 1 << 20
)

type Store interface {
	Reserve(ctx context.Context, key string) (*Response, error)
	Save(ctx context.Context, key string, resp Response) error
	Release(ctx context.Context, key string) error
}

type recorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *recorder) Write(p []byte) (int, error) {
	w.body.Write(p)
	return w.ResponseWriter.Write(p)
}

func (w *recorder) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// Middleware serves request once per Idempotency-Key and replays the saved response afterwards.
// Requests without the header pass through. Server errors (5xx) are not saved, so they may be retried.
// Reusing a key with another request body is refused with 422.
// If the store is unavailable requests pass through as well
func Middleware(store Store, l logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(HeaderKey)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > maxKeyLength {
				render.ServiceError(w, "Idempotency-Key is too long", http.StatusBadRequest)
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
			if err != nil {
				render.ServiceError(w, "Failed to read request body", http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			hash := bodyHash(body)

			// The same key sent to another endpoint is another request
			scoped := r.Method + " " + r.URL.Path + " " + key

			saved, err := store.Reserve(r.Context(), scoped)
			switch {
			case errors.Is(err, ErrInFlight):
				render.ServiceError(w, "Request with the same Idempotency-Key is in progress", http.StatusConflict)
				return
			case err != nil:
				l.Warn("idempotency store unavailable, serving request as is", "error", err)
				next.ServeHTTP(w, r)
				return
			case saved != nil && saved.BodyHash != hash:
				render.ServiceError(w, "Idempotency-Key reused with different payload", http.StatusUnprocessableEntity)
				return
			case saved != nil:
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.Header().Set(HeaderReplayed, "true")
				w.WriteHeader(saved.Status)
				_, _ = w.Write(saved.Body)
				return
			}

			rec := &recorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			// Client may be gone already, the key still has to be settled
			ctx := context.WithoutCancel(r.Context())
			if rec.status >= http.StatusInternalServerError {
				err = store.Release(ctx, scoped)
			} else {
				err = store.Save(ctx, scoped, Response{Status: rec.status, Body: rec.body.Bytes(), BodyHash: hash})
			}
			if err != nil {
				l.Error("failed to settle idempotency key", "key", key, "error", err)
			}
		})
	}
}

func bodyHash(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

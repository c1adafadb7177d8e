package middleware

import (
	"net/http"
	"strings"

	"github.com/nkiryanov/recharge/internal/handlers/adminctx"
	"github.com/nkiryanov/recharge/internal/handlers/render"
)

const bearerScheme = "Bearer"

type tokenParser interface {
	// Return token subject if token is a valid admin token
	ParseAdmin(token string) (string, error)
}

// AdminMiddleware lets through requests with valid admin bearer token only
func AdminMiddleware(tokens tokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || !strings.EqualFold(scheme, bearerScheme) || token == "" {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			subject, err := tokens.ParseAdmin(token)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := adminctx.New(r.Context(), subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

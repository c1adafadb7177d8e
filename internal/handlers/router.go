package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/recharge/internal/handlers/middleware"
	"github.com/nkiryanov/recharge/internal/idempotency"
	"github.com/nkiryanov/recharge/internal/logger"
	"github.com/nkiryanov/recharge/internal/models"
	"github.com/nkiryanov/recharge/internal/service/reconcile"
)

const requestTimeout = 60 * time.Second

type Services struct {
	Credit    creditService
	Charge    chargeService
	Reconcile reconcileService
	Seller    sellerService
	Phone     phoneService

	// Admin token parser, required
	Tokens tokenParser

	// Optional, charge requests are not deduplicated without it
	Idempotency idempotency.Store

	// Optional, served on /metrics
	Metrics http.Handler
}

func NewRouter(s Services, l logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(middleware.LoggerMiddleware(l))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(requestTimeout))

	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/sellers/{sellerID}", func(r chi.Router) {
			r.Method(http.MethodPost, "/credit-request", handleCreateCreditRequest(s.Credit, l))
			r.Group(func(r chi.Router) {
				if s.Idempotency != nil {
					r.Use(idempotency.Middleware(s.Idempotency, l))
				}
				r.Method(http.MethodPost, "/charge", handleCharge(s.Charge, l))
			})
			r.Method(http.MethodGet, "/balance", handleSellerBalance(s.Seller, l))
			r.Method(http.MethodGet, "/recharges", handleRechargeHistory(s.Charge, l))
			r.Method(http.MethodGet, "/transactions", handleTransactionHistory(s.Seller, l))
			r.Method(http.MethodGet, "/verify-accounting", handleVerifyAccounting(s.Reconcile, l))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.AdminMiddleware(s.Tokens))

			r.Method(http.MethodPost, "/credit-requests/{requestID}/approve", handleApproveCreditRequest(s.Credit, l))
			r.Method(http.MethodPost, "/credit-requests/{requestID}/reject", handleRejectCreditRequest(s.Credit, l))
			r.Method(http.MethodGet, "/sellers/{sellerID}/credit-requests", handleListCreditRequests(s.Credit, l))
			r.Method(http.MethodPost, "/sellers", handleCreateSeller(s.Seller, l))
			r.Method(http.MethodGet, "/sellers", handleListSellers(s.Seller, l))
			r.Method(http.MethodPost, "/phone-numbers", handleCreatePhoneNumber(s.Phone, l))
			r.Method(http.MethodPatch, "/phone-numbers/{phoneID}", handleUpdatePhoneNumber(s.Phone, l))
			r.Method(http.MethodGet, "/reconcile", handleReconcileAll(s.Reconcile, l))
		})
	})

	return r
}

type creditService interface {
	// Has to return apperrors.ErrSellerNotFound if seller not found
	CreateRequest(ctx context.Context, sellerID uuid.UUID, amount decimal.Decimal) (models.CreditRequest, error)

	// Has to return apperrors.ErrCreditRequestNotPending if request approved or rejected already
	Approve(ctx context.Context, requestID uuid.UUID) (models.CreditRequest, error)
	Reject(ctx context.Context, requestID uuid.UUID) (models.CreditRequest, error)

	ListRequests(ctx context.Context, sellerID uuid.UUID, statuses ...string) ([]models.CreditRequest, error)
}

type chargeService interface {
	Charge(ctx context.Context, sellerID uuid.UUID, phoneID uuid.UUID, amount decimal.Decimal) (models.RechargeSale, error)
	History(ctx context.Context, sellerID uuid.UUID, limit int) ([]models.RechargeSale, error)
}

type reconcileService interface {
	Verify(ctx context.Context, sellerID uuid.UUID) (reconcile.Report, error)
	VerifyAll(ctx context.Context) ([]reconcile.Report, error)
}

type sellerService interface {
	Create(ctx context.Context, name string) (models.Seller, error)
	Get(ctx context.Context, sellerID uuid.UUID) (models.Seller, error)
	List(ctx context.Context) ([]models.Seller, error)
	Transactions(ctx context.Context, sellerID uuid.UUID) (models.Seller, []models.CreditTransaction, error)
}

type phoneService interface {
	Create(ctx context.Context, number string) (models.PhoneNumber, error)
	SetActive(ctx context.Context, phoneID uuid.UUID, active bool) (models.PhoneNumber, error)
}

type tokenParser interface {
	ParseAdmin(token string) (string, error)
}

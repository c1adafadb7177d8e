package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/recharge/internal/handlers/render"
	"github.com/nkiryanov/recharge/internal/logger"
)

const maxHistoryLimit = 1000

func handleCreateCreditRequest(creditService creditService, l logger.Logger) http.Handler {
	type request struct {
		Amount decimal.Decimal `json:"amount" validate:"money"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sellerID, ok := uuidParam(w, r, "sellerID")
		if !ok {
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		req, err := creditService.CreateRequest(r.Context(), sellerID, data.Amount)
		if err != nil {
			renderError(w, l, "Failed to create credit request", err)
			return
		}

		render.JSONWithStatus(w, newCreditRequestResponse(req), http.StatusCreated)
	})
}

func handleCharge(chargeService chargeService, l logger.Logger) http.Handler {
	type request struct {
		PhoneNumberID uuid.UUID       `json:"phone_number_id" validate:"required"`
		Amount        decimal.Decimal `json:"amount" validate:"money"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sellerID, ok := uuidParam(w, r, "sellerID")
		if !ok {
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		sale, err := chargeService.Charge(r.Context(), sellerID, data.PhoneNumberID, data.Amount)
		if err != nil {
			renderError(w, l, "Failed to charge phone", err)
			return
		}

		render.JSONWithStatus(w, newSaleResponse(sale), http.StatusCreated)
	})
}

func handleSellerBalance(sellerService sellerService, l logger.Logger) http.Handler {
	type response struct {
		SellerID       uuid.UUID `json:"seller_id"`
		CurrentBalance string    `json:"current_balance"`
		SellerName     string    `json:"seller_name"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sellerID, ok := uuidParam(w, r, "sellerID")
		if !ok {
			return
		}

		seller, err := sellerService.Get(r.Context(), sellerID)
		if err != nil {
			renderError(w, l, "Failed to get balance", err)
			return
		}

		render.JSON(w, response{
			SellerID:       seller.ID,
			CurrentBalance: seller.Balance.StringFixed(2),
			SellerName:     seller.Name,
		})
	})
}

func handleRechargeHistory(chargeService chargeService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sellerID, ok := uuidParam(w, r, "sellerID")
		if !ok {
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > maxHistoryLimit {
				render.ServiceError(w, "limit must be an integer from 1 to 1000", http.StatusBadRequest)
				return
			}
			limit = n
		}

		sales, err := chargeService.History(r.Context(), sellerID, limit)
		if err != nil {
			renderError(w, l, "Failed to get recharge history", err)
			return
		}

		res := make([]saleResponse, 0, len(sales))
		for _, s := range sales {
			res = append(res, newSaleResponse(s))
		}
		render.JSON(w, res)
	})
}

func handleTransactionHistory(sellerService sellerService, l logger.Logger) http.Handler {
	type response struct {
		SellerID       uuid.UUID             `json:"seller_id"`
		CurrentBalance string                `json:"current_balance"`
		Transactions   []transactionResponse `json:"transactions"`
		TotalCount     int                   `json:"total_count"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sellerID, ok := uuidParam(w, r, "sellerID")
		if !ok {
			return
		}

		seller, transactions, err := sellerService.Transactions(r.Context(), sellerID)
		if err != nil {
			renderError(w, l, "Failed to get transactions", err)
			return
		}

		res := response{
			SellerID:       seller.ID,
			CurrentBalance: seller.Balance.StringFixed(2),
			Transactions:   make([]transactionResponse, 0, len(transactions)),
			TotalCount:     len(transactions),
		}
		for _, t := range transactions {
			res.Transactions = append(res.Transactions, newTransactionResponse(t))
		}
		render.JSON(w, res)
	})
}

func handleVerifyAccounting(reconcileService reconcileService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sellerID, ok := uuidParam(w, r, "sellerID")
		if !ok {
			return
		}

		report, err := reconcileService.Verify(r.Context(), sellerID)
		if err != nil {
			renderError(w, l, "Failed to verify accounting", err)
			return
		}

		render.JSON(w, newReportResponse(report))
	})
}

package handlers

import (
	"net/http"

	"github.com/nkiryanov/recharge/internal/handlers/adminctx"
	"github.com/nkiryanov/recharge/internal/handlers/render"
	"github.com/nkiryanov/recharge/internal/logger"
	"github.com/nkiryanov/recharge/internal/models"
)

func handleApproveCreditRequest(creditService creditService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID, ok := uuidParam(w, r, "requestID")
		if !ok {
			return
		}

		req, err := creditService.Approve(r.Context(), requestID)
		if err != nil {
			renderError(w, l, "Failed to approve credit request", err)
			return
		}

		admin, _ := adminctx.FromContext(r.Context())
		l.Info("credit request approved by admin", "request_id", req.ID, "admin", admin)

		render.JSON(w, newCreditRequestResponse(req))
	})
}

func handleRejectCreditRequest(creditService creditService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID, ok := uuidParam(w, r, "requestID")
		if !ok {
			return
		}

		req, err := creditService.Reject(r.Context(), requestID)
		if err != nil {
			renderError(w, l, "Failed to reject credit request", err)
			return
		}

		admin, _ := adminctx.FromContext(r.Context())
		l.Info("credit request rejected by admin", "request_id", req.ID, "admin", admin)

		render.JSON(w, newCreditRequestResponse(req))
	})
}

func handleListCreditRequests(creditService creditService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sellerID, ok := uuidParam(w, r, "sellerID")
		if !ok {
			return
		}

		var statuses []string
		switch status := r.URL.Query().Get("status"); status {
		case "":
		case models.CreditRequestPending, models.CreditRequestApproved, models.CreditRequestRejected:
			statuses = append(statuses, status)
		default:
			render.ServiceError(w, "status must be one of: pending, approved, rejected", http.StatusBadRequest)
			return
		}

		requests, err := creditService.ListRequests(r.Context(), sellerID, statuses...)
		if err != nil {
			renderError(w, l, "Failed to list credit requests", err)
			return
		}

		res := make([]creditRequestResponse, 0, len(requests))
		for _, req := range requests {
			res = append(res, newCreditRequestResponse(req))
		}
		render.JSON(w, res)
	})
}

func handleCreateSeller(sellerService sellerService, l logger.Logger) http.Handler {
	type request struct {
		Name string `json:"name" validate:"required,max=100"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		seller, err := sellerService.Create(r.Context(), data.Name)
		if err != nil {
			renderError(w, l, "Failed to create seller", err)
			return
		}

		render.JSONWithStatus(w, newSellerResponse(seller), http.StatusCreated)
	})
}

func handleListSellers(sellerService sellerService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sellers, err := sellerService.List(r.Context())
		if err != nil {
			renderError(w, l, "Failed to list sellers", err)
			return
		}

		res := make([]sellerResponse, 0, len(sellers))
		for _, s := range sellers {
			res = append(res, newSellerResponse(s))
		}
		render.JSON(w, res)
	})
}

func handleCreatePhoneNumber(phoneService phoneService, l logger.Logger) http.Handler {
	type request struct {
		PhoneNumber string `json:"phone_number" validate:"phone"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		phone, err := phoneService.Create(r.Context(), data.PhoneNumber)
		if err != nil {
			renderError(w, l, "Failed to create phone number", err)
			return
		}

		render.JSONWithStatus(w, newPhoneNumberResponse(phone), http.StatusCreated)
	})
}

func handleUpdatePhoneNumber(phoneService phoneService, l logger.Logger) http.Handler {
	type request struct {
		IsActive *bool `json:"is_active" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		phoneID, ok := uuidParam(w, r, "phoneID")
		if !ok {
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		phone, err := phoneService.SetActive(r.Context(), phoneID, *data.IsActive)
		if err != nil {
			renderError(w, l, "Failed to update phone number", err)
			return
		}

		render.JSON(w, newPhoneNumberResponse(phone))
	})
}

func handleReconcileAll(reconcileService reconcileService, l logger.Logger) http.Handler {
	type response struct {
		Reports    []reportResponse `json:"reports"`
		Mismatches int              `json:"mismatches"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reports, err := reconcileService.VerifyAll(r.Context())
		if err != nil {
			renderError(w, l, "Failed to reconcile", err)
			return
		}

		res := response{Reports: make([]reportResponse, 0, len(reports))}
		for _, report := range reports {
			if !report.IsMatch || !report.ChainIntact {
				res.Mismatches++
			}
			res.Reports = append(res.Reports, newReportResponse(report))
		}
		render.JSON(w, res)
	})
}

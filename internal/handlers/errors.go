package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/recharge/internal/apperrors"
	"github.com/nkiryanov/recharge/internal/handlers/render"
	"github.com/nkiryanov/recharge/internal/logger"
)

// renderError writes service error with status depending on error kind
func renderError(w http.ResponseWriter, l logger.Logger, msg string, err error) {
	switch {
	case errors.Is(err, apperrors.ErrAmountInvalid),
		errors.Is(err, apperrors.ErrPhoneNumberInvalid),
		errors.Is(err, apperrors.ErrSellerNameInvalid):
		render.ServiceError(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch apperrors.KindOf(err) {
	case apperrors.KindNotFound:
		render.ServiceError(w, err.Error(), http.StatusNotFound)
	case apperrors.KindInvalidState:
		render.ServiceError(w, err.Error(), http.StatusUnprocessableEntity)
	case apperrors.KindInsufficientBalance:
		render.ServiceError(w, err.Error(), http.StatusPaymentRequired)
	default:
		l.Error(msg, "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}

// uuidParam reads uuid path parameter and writes 404 if it is not uuid at all
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		render.ServiceError(w, "Not found", http.StatusNotFound)
		return uuid.Nil, false
	}
	return id, true
}

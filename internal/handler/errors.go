package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/food-ordering/internal/domain/auth"
	"github.com/xenking/food-ordering/internal/domain/menu"
	"github.com/xenking/food-ordering/internal/domain/order"
	"github.com/xenking/food-ordering/internal/domain/payment"
	"github.com/xenking/food-ordering/pkg/validate"
)

// writeDomainError converts domain errors to {code, message} responses.
// Anything unrecognised is logged and reported as 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		vErr        *validate.Error
		declinedErr *payment.DeclinedError
		submitErr   *order.SubmissionError
	)
	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusUnprocessableEntity, "validation failed", vErr.Fields)
	case errors.Is(err, errBadRequest):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, err.Error(), nil)
	case errors.Is(err, auth.ErrEmailTaken):
		writeError(w, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, auth.ErrUserNotFound),
		errors.Is(err, menu.ErrNotFound),
		errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, order.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, payment.ErrUnknownMethod):
		writeError(w, http.StatusUnprocessableEntity, err.Error(), nil)
	case errors.As(err, &declinedErr):
		writeError(w, http.StatusPaymentRequired, declinedErr.Error(), nil)
	case errors.As(err, &submitErr):
		zctx.From(r.Context()).Warn("Order submission failed", zap.Error(submitErr.Err))
		writeError(w, http.StatusServiceUnavailable, "failed to place order, please try again", nil)
	default:
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error", nil)
	}
}

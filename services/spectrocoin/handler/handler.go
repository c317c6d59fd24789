// Package handler provides the http surface of the spectrocoin callback service.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/brave-intl/spectrocoin-callback/libs/handlers"
	"github.com/brave-intl/spectrocoin-callback/libs/logging"
	"github.com/brave-intl/spectrocoin-callback/libs/requestutils"
	"github.com/brave-intl/spectrocoin-callback/services/spectrocoin/callback"
	"github.com/brave-intl/spectrocoin-callback/services/spectrocoin/model"
)

// OKBody is the literal body the gateway expects on success.
const OKBody = "*ok*"

type callbackParser interface {
	Parse(ctx context.Context, contentType string, body []byte) (callback.Callback, error)
}

type callbackService interface {
	Process(ctx context.Context, cb callback.Callback) error
}

type Callback struct {
	parser callbackParser
	svc    callbackService
}

func NewCallback(parser callbackParser, svc callbackService) *Callback {
	return &Callback{parser: parser, svc: svc}
}

// Handle processes one webhook delivery.
//
// It is meant to be served through handlers.StatusHandler, so failures carry no body.
func (h *Callback) Handle(w http.ResponseWriter, r *http.Request) *handlers.AppError {
	ctx := r.Context()

	lg := logging.Logger(ctx, "spectrocoin").With().Str("func", "Callback").Logger()

	if r.Method != http.MethodPost {
		lg.Warn().Str("method", r.Method).Msg("invalid request method, POST is required")

		w.Header().Set("Allow", http.MethodPost)

		return &handlers.AppError{
			Cause:   model.ErrMethodNotAllowed,
			Message: "POST is required",
			Code:    http.StatusMethodNotAllowed,
		}
	}

	body, err := requestutils.Read(ctx, r.Body)
	if err != nil {
		lg.Warn().Err(err).Msg("failed to read request body")
		return handlers.WrapError(err, "Failed to read request body", http.StatusBadRequest)
	}

	cb, err := h.parser.Parse(ctx, r.Header.Get("content-type"), body)
	if err != nil {
		lg.Warn().Err(err).Msg("invalid callback")
		return appErrorFrom(err)
	}

	if err := h.svc.Process(ctx, cb); err != nil {
		return appErrorFrom(err)
	}

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(OKBody)); err != nil {
		lg.Error().Err(err).Msg("failed to write response")
	}

	return nil
}

func appErrorFrom(err error) *handlers.AppError {
	result := &handlers.AppError{
		Cause:   err,
		Message: "Error processing callback",
		Code:    statusFromError(err),
	}

	var verr *model.ValidationError
	if errors.As(err, &verr) {
		result.Data = map[string]interface{}{"validationErrors": verr.FieldMap()}
	}

	return result
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, model.ErrNoCallbackData),
		errors.Is(err, model.ErrInvalidCallback),
		errors.Is(err, model.ErrInvalidSignature),
		errors.Is(err, model.ErrInvalidOrderReference),
		errors.Is(err, model.ErrInvalidUpstreamOrder):
		return http.StatusBadRequest

	case errors.Is(err, model.ErrOrderNotFound):
		return http.StatusNotFound

	case errors.Is(err, model.ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed

	default:
		// Upstream, ledger and unrecognized status failures.
		return http.StatusInternalServerError
	}
}

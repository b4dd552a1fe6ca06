package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/office-lunch/internal/domain/apperr"
	"github.com/xenking/office-lunch/internal/domain/employee"
	"github.com/xenking/office-lunch/internal/domain/menu"
	"github.com/xenking/office-lunch/internal/domain/order"
)

// classify maps a domain error to an HTTP status and a client-facing message.
func classify(err error) (int, string) {
	var vErr *apperr.ValidationError
	if errors.As(err, &vErr) {
		return http.StatusBadRequest, vErr.Error()
	}

	var refErr *apperr.ReferenceNotFoundError
	if errors.As(err, &refErr) {
		return http.StatusUnprocessableEntity, refErr.Error()
	}

	switch {
	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, employee.ErrNotFound),
		errors.Is(err, menu.ErrNotFound):
		return http.StatusNotFound, notFoundMessage(err)
	case errors.Is(err, order.ErrDuplicateRequest):
		return http.StatusConflict, order.ErrDuplicateRequest.Error()
	}

	return http.StatusInternalServerError, "internal error"
}

func notFoundMessage(err error) string {
	for _, target := range []error{order.ErrNotFound, employee.ErrNotFound, menu.ErrNotFound} {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return "not found"
}

// fail writes the error response. Unexpected errors are logged with their
// full chain; the client only sees a generic message.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := classify(err)
	if status == http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeError(w, status, msg)
}

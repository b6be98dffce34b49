package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/backoffice/internal/common"
)

const (
	detailInvalidCredentials = "Could not validate credentials"
	detailPermissionDenied   = "Permission denied"
	detailInternal           = "internal error"
)

// statusFor maps a service error onto a status code and client-safe detail.
// Unknown errors become 500 and their text stays in the server log.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrInvalidCredentials), errors.Is(err, common.ErrSubjectNotFound):
		return http.StatusUnauthorized, detailInvalidCredentials
	case errors.Is(err, common.ErrPermissionDenied):
		return http.StatusForbidden, detailPermissionDenied
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, common.ErrorValidation):
		return http.StatusUnprocessableEntity, err.Error()
	default:
		return http.StatusInternalServerError, detailInternal
	}
}

// writeError sends {"detail": ...} with the bearer challenge header, which
// every error response carries.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := statusFor(err)

	switch {
	case status >= http.StatusInternalServerError:
		h.logger.Error(r.Context(), "request failed", "error", err.Error(), "request_id", requestIDFrom(r.Context()))
	case status == http.StatusUnauthorized:
		h.logger.Warn(r.Context(), "authentication failed", "error", err.Error(), "request_id", requestIDFrom(r.Context()))
	}

	w.Header().Set(common.AuthenticateHeaderName, common.BearerScheme)
	writeJSON(w, status, errorResponse{Detail: detail})
}

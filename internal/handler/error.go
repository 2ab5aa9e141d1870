package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/DukeRupert/drapery/internal/domain"
)

// statusByCode maps domain error codes to HTTP statuses. Unknown codes are 500.
var statusByCode = map[string]int{
	domain.EINVALID:       http.StatusBadRequest,
	domain.ENOTFOUND:      http.StatusNotFound,
	domain.ECONFLICT:      http.StatusConflict,
	domain.ETOOLARGE:      http.StatusRequestEntityTooLarge,
	domain.ERATELIMIT:     http.StatusTooManyRequests,
	domain.EINTERNAL:      http.StatusInternalServerError,
	domain.EMISCONFIGURED: http.StatusInternalServerError,
	domain.EUNAVAILABLE:   http.StatusServiceUnavailable,
}

// ErrorResponse writes err as JSON for API callers or plain text otherwise.
// Internal and configuration failures only ever expose a generic message.
func ErrorResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	code := domain.ErrorCode(err)
	message := domain.ErrorMessage(err)
	status := ErrorCodeToHTTPStatus(code)

	attrs := []any{
		"error", err.Error(),
		"code", code,
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
	}
	if op := domain.ErrorOp(err); op != "" {
		attrs = append(attrs, "op", op)
	}
	if status >= 500 {
		logger.Error("server error", attrs...)
	} else {
		logger.Info("client error", attrs...)
	}

	if acceptsJSON(r) {
		writeJSON(w, status, map[string]any{
			"error": map[string]string{
				"code":    code,
				"message": message,
			},
		})
		return
	}
	http.Error(w, message, status)
}

// ErrorCodeToHTTPStatus maps a domain error code to an HTTP status.
func ErrorCodeToHTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// NotFoundResponse answers 404 for an order or product that does not exist.
func NotFoundResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	ErrorResponse(w, r, logger, domain.Errorf(domain.ENOTFOUND, "", "The requested page was not found"))
}

// InternalErrorResponse logs err and answers with a generic 500.
func InternalErrorResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	ErrorResponse(w, r, logger, domain.Internal(err, "", "An unexpected error occurred"))
}

// acceptsJSON reports whether the caller is the JSON API rather than a
// browser or an htmx swap.
func acceptsJSON(r *http.Request) bool {
	for _, h := range []string{"Accept", "Content-Type"} {
		if strings.Contains(r.Header.Get(h), "application/json") {
			return true
		}
	}
	return false
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Package httpapi serves the cart over HTTP and, unless the service is itself
// running against a proxy, the proxy's transcription and completion contract.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"voice-cart/internal/application"
	"voice-cart/internal/domain"
	"voice-cart/internal/infra"
)

type jsonError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WriteJSONError writes a JSON error payload with the given status code.
func WriteJSONError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(jsonError{Error: message, Details: details})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service errors onto status codes. Cart rejections carry
// the alert text the shopper would see.
func writeError(w http.ResponseWriter, err error) {
	var apiErr *infra.APIError
	switch {
	case errors.Is(err, application.ErrBusy):
		WriteJSONError(w, http.StatusConflict, "busy", err.Error())
	case errors.Is(err, domain.ErrCompletion):
		WriteJSONError(w, http.StatusBadGateway, "completion_failed", domain.MsgCompletionError)
	case errors.As(err, &apiErr):
		WriteJSONError(w, http.StatusBadGateway, "upstream_error", apiErr.Error())
	case domain.IsUserError(err):
		WriteJSONError(w, http.StatusUnprocessableEntity, "unprocessable", domain.UserMessage(err))
	default:
		WriteJSONError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"investledger-backend/internal/domain"
	"investledger-backend/internal/logger"
)

// APIResponse is the envelope of every JSON response
type APIResponse struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Reference string            `json:"reference,omitempty"`
	Data      interface{}       `json:"data,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}

func writeOK(w http.ResponseWriter, message string, data interface{}) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: message, Data: data})
}

// statusFor maps the error taxonomy onto HTTP status codes
func statusFor(err error) int {
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrLockContention):
		return http.StatusConflict
	case errors.Is(err, domain.ErrTransientStore):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders a service error. Internal details stay in the logs.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := APIResponse{Success: false, Message: err.Error()}

	var ve *domain.ValidationError
	if errors.As(err, &ve) && ve.Field != "" {
		resp.Errors = map[string]string{ve.Field: ve.Message}
	}

	switch status {
	case http.StatusInternalServerError:
		logger.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		resp.Message = "internal error"
	case http.StatusServiceUnavailable:
		logger.Warn("Store unavailable", "method", r.Method, "path", r.URL.Path, "error", err)
		resp.Message = "service temporarily unavailable, please retry"
	}
	writeJSON(w, status, resp)
}

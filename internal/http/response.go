package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Default(log.ComponentHTTP).Warn("Failed to write response", log.FieldError, err)
	}
}

func respond(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

func respondCreated(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

func respondDone(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: message})
}

func fail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Envelope{Success: false, Message: message})
}

// statusFor maps an operation error to its HTTP status.
func statusFor(err error) int {
	if errors.Is(err, services.ErrInvalidCredentials) {
		return http.StatusUnauthorized
	}
	switch core.KindOf(err) {
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindInsufficientFunds:
		return http.StatusConflict
	case core.KindValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err with the user-safe message. Internal causes were
// already logged by the service that produced them.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := core.UserMessage(err)
	if status == http.StatusUnauthorized {
		message = err.Error()
	}
	if status == http.StatusInternalServerError {
		log.FromContext(r.Context()).Failure(r.Context(), "Request failed", err, log.FieldPath, r.URL.Path)
	}
	writeJSON(w, status, Envelope{Success: false, Message: message})
}

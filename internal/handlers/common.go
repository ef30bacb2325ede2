package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"modelhub-backend/internal/auth"
	"modelhub-backend/internal/services"
	"modelhub-backend/internal/session"

	"github.com/rs/zerolog/log"
)

const internalErrorMessage = "Something went wrong. Please try again."

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// respondResult sends {"<noun>": value, "error": null}
func respondResult(w http.ResponseWriter, statusCode int, noun string, value interface{}) {
	respondJSON(w, statusCode, map[string]interface{}{
		noun:    value,
		"error": nil,
	})
}

// respondFailure sends {"<noun>": null, "error": message} with a status
// derived from err. Unexpected errors are logged and hidden.
func respondFailure(w http.ResponseWriter, noun string, err error) {
	status := errorStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("Request failed")
		message = internalErrorMessage
	}
	respondJSON(w, status, map[string]interface{}{
		noun:    nil,
		"error": message,
	})
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

func errorStatus(err error) int {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrShortUsername),
		errors.Is(err, auth.ErrPasswordMismatch):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, session.ErrNotSignedIn):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrProfileNotFound),
		errors.Is(err, services.ErrModelNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrEmailInUse),
		errors.Is(err, auth.ErrUsernameTaken),
		errors.Is(err, services.ErrUsernameTaken):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return &services.ValidationError{Field: "body", Message: "Invalid request body"}
	}
	return nil
}

package common

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
)

const internalErrorMessage = "Internal server error."

type MessageResponse struct {
	Message string `json:"message"`
}

func RespondWithMessage(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, MessageResponse{Message: message})
}

// RespondWithError writes the client-safe message of err. Errors without one
// are logged through the request logger and reported as a generic 500.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatusFromError(err)
	if status != http.StatusInternalServerError {
		message := http.StatusText(status) + "."
		var appErr *Error
		if errors.As(err, &appErr) {
			message = appErr.Message
		}
		RespondWithMessage(w, status, message)
		return
	}

	zerolog.Ctx(r.Context()).Error().Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("request failed")
	RespondWithMessage(w, http.StatusInternalServerError, internalErrorMessage)
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

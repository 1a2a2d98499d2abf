// Package respond writes the JSON envelope and maps errors to HTTP statuses.
package respond

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/de-tools/cost-atlas/pkg/models/api"
	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

// Now stamps envelopes. Tests replace it.
var Now = time.Now

func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	write(w, r, status, api.Envelope{
		Success:   true,
		Data:      data,
		Timestamp: Now().UTC(),
	})
}

func OK(w http.ResponseWriter, r *http.Request, data any) {
	JSON(w, r, http.StatusOK, data)
}

func Message(w http.ResponseWriter, r *http.Request, status int, message string) {
	write(w, r, status, api.ErrorResponse{Error: message})
}

// Error maps err onto the status taxonomy. Unrecognized errors are upstream failures.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	logger := zerolog.Ctx(r.Context())

	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		details := make([]api.FieldError, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			details = append(details, api.FieldError{Field: f.Field, Message: f.Message})
		}
		write(w, r, http.StatusBadRequest, api.ErrorResponse{Error: verr.Error(), Details: details})
	case errors.Is(err, domain.ErrForbidden):
		Message(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		Message(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrAlreadyExists):
		Message(w, r, http.StatusConflict, err.Error())
	default:
		logger.Error().Err(err).Msg("request failed")
		Message(w, r, http.StatusInternalServerError, err.Error())
	}
}

// Decode reads a JSON body into v. A malformed body is a validation error on field "body".
func Decode(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return domain.NewValidationError("body", "request body is required")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return domain.NewValidationError("body", "request body is not valid JSON: "+err.Error())
	}
	return nil
}

func write(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}

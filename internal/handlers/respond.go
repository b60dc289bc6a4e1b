// Package handlers exposes the dashboard services over HTTP.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"retail-dashboard-api/internal/channels"
	"retail-dashboard-api/internal/i18n"
	"retail-dashboard-api/internal/listing"
	"retail-dashboard-api/internal/models"
	"retail-dashboard-api/internal/repository"
	"retail-dashboard-api/internal/services"
	"retail-dashboard-api/internal/split"
	"retail-dashboard-api/internal/validation"
)

// Error codes of the JSON error envelope
const (
	CodeBadRequest = "bad_request"
	CodeNotFound   = "not_found"
	CodeConflict   = "conflict"
	CodeValidation = "validation_error"
	CodeInternal   = "internal_error"
)

// maxBodyBytes bounds request bodies; every form here is small
const maxBodyBytes = 1 << 20

var (
	errMalformedBody = errors.New("malformed request body")
	errNoProvider    = errors.New("client preferences not loaded")
)

// writeJSONResponse is a helper function to write JSON responses
func writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeErrorResponse writes the error envelope. message is already translated.
func writeErrorResponse(w http.ResponseWriter, statusCode int, resp models.ErrorResponse) {
	writeJSONResponse(w, statusCode, resp)
}

// decodeJSON reads the request body into dst, rejecting unknown fields and
// trailing data
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data", errMalformedBody)
	}
	return nil
}

// writeServiceError maps a service error to its status code and envelope.
// back is the list route offered on not-found responses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, back string) {
	tr := i18n.FromContext(r.Context())

	if verr, ok := validation.As(err); ok {
		details := make([]models.ErrorDetail, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			details = append(details, models.ErrorDetail{Field: f.Field, Issue: tr.T(f.Issue)})
		}
		slog.Debug("Request failed validation", "path", r.URL.Path, "error", err)
		writeErrorResponse(w, http.StatusUnprocessableEntity, models.ErrorResponse{
			Code:    CodeValidation,
			Message: tr.T("error.validation"),
			Details: details,
		})
		return
	}

	switch {
	case isNotFound(err):
		slog.Debug("Resource not found", "path", r.URL.Path, "error", err)
		writeErrorResponse(w, http.StatusNotFound, models.ErrorResponse{
			Code:    CodeNotFound,
			Message: tr.T("error.not_found"),
			Back:    back,
		})
	case errors.Is(err, split.ErrLastBucket):
		writeErrorResponse(w, http.StatusConflict, models.ErrorResponse{Code: CodeConflict, Message: tr.T("error.last_bucket")})
	case errors.Is(err, channels.ErrSyncInProgress):
		writeErrorResponse(w, http.StatusConflict, models.ErrorResponse{Code: CodeConflict, Message: tr.T("error.sync_in_progress")})
	case errors.Is(err, errMalformedBody), errors.Is(err, listing.ErrUnknownField),
		errors.Is(err, i18n.ErrUnsupportedLocale), errors.Is(err, i18n.ErrUnsupportedTheme):
		slog.Debug("Bad request", "path", r.URL.Path, "error", err)
		writeErrorResponse(w, http.StatusBadRequest, models.ErrorResponse{
			Code:    CodeBadRequest,
			Message: tr.T("error.bad_request"),
			Details: []models.ErrorDetail{{Issue: err.Error()}},
		})
	default:
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeErrorResponse(w, http.StatusInternalServerError, models.ErrorResponse{
			Code:    CodeInternal,
			Message: tr.T("error.internal"),
		})
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound) ||
		errors.Is(err, services.ErrDraftNotFound) ||
		errors.Is(err, channels.ErrJobNotFound) ||
		errors.Is(err, split.ErrBucketNotFound) ||
		errors.Is(err, split.ErrItemNotFound)
}

// NotFound answers requests that match no route
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeErrorResponse(w, http.StatusNotFound, models.ErrorResponse{
		Code:    CodeNotFound,
		Message: i18n.FromContext(r.Context()).T("error.not_found"),
		Back:    "/v1/navigation",
	})
}

// parseListQuery reads the listing parameters for schema. The locale drives
// collation of string sorts.
func parseListQuery[T any](r *http.Request, schema *listing.Schema[T]) (listing.Query, error) {
	q, err := listing.ParseQuery(schema, r.URL.Query())
	if err != nil {
		return listing.Query{}, err
	}
	q.Language = i18n.FromContext(r.Context()).Tag()
	return q, nil
}

// Package handler implements the HTTP API of the form builder.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/matthewbaird/formbuilder/internal/field"
	"github.com/matthewbaird/formbuilder/internal/logging"
	"github.com/matthewbaird/formbuilder/internal/store"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 4 << 20

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Component("http").Warn("writeJSON encode failed", "err", err)
	}
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

// decodeJSON decodes the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

// decodeOrReject decodes the body and writes a 400 when it is malformed.
func decodeOrReject(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := decodeJSON(w, r, v); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return false
	}
	return true
}

// parseLimit reads the limit query parameter, capped at max.
func parseLimit(r *http.Request, def, max int) int {
	n := def
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			n = parsed
		}
	}
	if n > max {
		n = max
	}
	return n
}

// errorToHTTP maps domain errors to HTTP responses.
func errorToHTTP(w http.ResponseWriter, logger *log.Logger, err error) {
	var dup *field.DuplicateNameError
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, field.ErrFieldNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, field.ErrUnknownType):
		writeError(w, http.StatusBadRequest, "UNKNOWN_TYPE", err.Error())
	case errors.Is(err, store.ErrEmptyModule),
		errors.Is(err, field.ErrEmptyModuleName),
		errors.Is(err, field.ErrNoFields),
		errors.Is(err, field.ErrEmptyFieldName),
		errors.As(err, &dup):
		writeError(w, http.StatusBadRequest, "INVALID_DEFINITION", err.Error())
	default:
		logging.Or(logger).Error("internal error", "err", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/intervue-ai/intervue/pkg/core"
)

type errorEnvelope struct {
	Error *core.Error `json:"error"`
}

func writeErrorJSON(w http.ResponseWriter, coreErr *core.Error, status int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: coreErr})
}

// writeError maps an error to its HTTP status and JSON envelope.
func writeError(w http.ResponseWriter, err error) {
	var coreErr *core.Error
	if !errors.As(err, &coreErr) {
		coreErr = core.NewAPIError("internal error")
	}
	status := http.StatusInternalServerError
	switch coreErr.Type {
	case core.ErrInvalidRequest:
		status = http.StatusBadRequest
	case core.ErrNotFound:
		status = http.StatusNotFound
	case core.ErrConfiguration:
		status = http.StatusInternalServerError
	case core.ErrRateLimit:
		status = http.StatusTooManyRequests
	case core.ErrOverloaded:
		status = http.StatusServiceUnavailable
	}
	writeErrorJSON(w, coreErr, status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"finsight/internal/core"
	"finsight/internal/ingest"
	"finsight/internal/suggest"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeError maps domain errors onto HTTP statuses: bad input is 400,
// a missing dataset is 404, an empty scope is 422, everything else 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, suggest.ErrInvalidCount),
		errors.Is(err, ingest.ErrInvalidCSV):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrUnknownDataset):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrNoTransactions), errors.Is(err, core.ErrNoExpenses):
		writeMessage(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"error", err, "method", r.Method, "url", r.URL.Path)
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}

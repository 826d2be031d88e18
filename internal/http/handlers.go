package http

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"finsight/internal/suggest"
)

const maxUploadBytes = 10 << 20 // 10MB

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to read upload body", "error", err)
		writeError(w, r, err)
		return
	}

	sourceName := strings.TrimSpace(r.URL.Query().Get("source"))

	result, err := s.ingest.Upload(r.Context(), string(body), sourceName)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "Dataset uploaded",
		"dataset_id", result.DatasetID,
		"rows_ingested", result.RowsIngested,
		"warnings", len(result.Warnings),
		"source", sourceName)

	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	datasetID, ok := requireDatasetID(w, r)
	if !ok {
		return
	}

	result, err := s.reports.MonthlyReport(r.Context(), datasetID, monthParam(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleMerchants(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	datasetID, ok := requireDatasetID(w, r)
	if !ok {
		return
	}

	limit := intParam(r, "limit", 5)
	if limit < 1 || limit > 50 {
		writeMessage(w, http.StatusBadRequest, "limit must be between 1 and 50")
		return
	}

	result, err := s.reports.TopMerchants(r.Context(), datasetID, monthParam(r), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	datasetID, ok := requireDatasetID(w, r)
	if !ok {
		return
	}

	count := intParam(r, "count", suggest.MinRecommendations)
	useSummary := boolParam(r, "summary", true)

	result, err := s.suggestions.Generate(r.Context(), datasetID, monthParam(r), count, useSummary)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	datasetID, ok := requireDatasetID(w, r)
	if !ok {
		return
	}

	count := intParam(r, "count", suggest.MinRecommendations)
	useSummary := boolParam(r, "summary", true)

	result, err := s.agent.Run(r.Context(), datasetID, monthParam(r), count, useSummary)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func requireDatasetID(w http.ResponseWriter, r *http.Request) (string, bool) {
	datasetID := strings.TrimSpace(r.URL.Query().Get("dataset_id"))
	if datasetID == "" {
		writeMessage(w, http.StatusBadRequest, "dataset_id is required")
		return "", false
	}
	return datasetID, true
}

func monthParam(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("month"))
}

func intParam(r *http.Request, key string, defaultValue int) int {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}

func boolParam(r *http.Request, key string, defaultValue bool) bool {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}
	return b
}

// Package http exposes the analytics pipeline as a JSON API.
package http

import (
	"net/http"

	"finsight/internal/agent"
	"finsight/internal/ingest"
	"finsight/internal/report"
	"finsight/internal/suggest"
)

type Server struct {
	ingest      *ingest.Service
	reports     *report.Service
	suggestions *suggest.Service
	agent       *agent.Agent
}

// NewServer wires the handlers and returns a configured *http.Server.
// Timeouts and shutdown policy are set by the caller.
func NewServer(addr string, ingestSvc *ingest.Service, reports *report.Service, suggestions *suggest.Service, agentRunner *agent.Agent) *http.Server {
	s := &Server{
		ingest:      ingestSvc,
		reports:     reports,
		suggestions: suggestions,
		agent:       agentRunner,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/upload", s.handleUpload)
	mux.HandleFunc("/api/report", s.handleReport)
	mux.HandleFunc("/api/merchants", s.handleMerchants)
	mux.HandleFunc("/api/suggestions", s.handleSuggestions)
	mux.HandleFunc("/api/agent", s.handleAgent)
	mux.HandleFunc("/healthz", s.handleHealth)

	return &http.Server{
		Addr:    addr,
		Handler: mux,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

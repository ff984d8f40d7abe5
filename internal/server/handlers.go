package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bull/corpus-server/internal/ingest"
	"github.com/bull/corpus-server/internal/search"
	"github.com/bull/corpus-server/internal/source"
	"github.com/bull/corpus-server/internal/storage"
)

type ingestRequest struct {
	OwnerID   string `json:"owner_id"`
	SourceRef string `json:"source_ref"`
}

type ingestResponse struct {
	DocumentID   string `json:"document_id"`
	Status       string `json:"status"`
	FailedChunks []int  `json:"failed_chunks,omitempty"`
}

type searchRequest struct {
	OwnerID string `json:"owner_id"`
	Query   string `json:"query"`
	Mode    string `json:"mode"`
	Limit   int    `json:"limit"`
}

type searchResponse struct {
	Results []search.Result `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.OwnerID == "" || req.SourceRef == "" {
		writeError(w, http.StatusBadRequest, "owner_id and source_ref are required")
		return
	}

	result, err := s.ingestor.Ingest(r.Context(), req.OwnerID, req.SourceRef)
	if err != nil {
		switch {
		case errors.Is(err, source.ErrNotFound):
			writeError(w, http.StatusNotFound, "source document not found")
		case errors.Is(err, source.ErrAuth):
			writeError(w, http.StatusBadGateway, "source rejected credentials")
		case errors.Is(err, storage.ErrQdrantUnreachable):
			writeError(w, http.StatusServiceUnavailable, "storage backend unavailable")
		default:
			s.logger.Error("Ingest request failed", "owner", req.OwnerID, "ref", req.SourceRef, "error", err)
			writeError(w, http.StatusInternalServerError, "ingestion failed")
		}
		return
	}

	status := http.StatusOK
	if result.Status == ingest.StatusCreated || result.Status == ingest.StatusPartial {
		status = http.StatusCreated
	}
	writeJSON(w, status, ingestResponse{
		DocumentID:   result.DocumentID,
		Status:       string(result.Status),
		FailedChunks: result.FailedOrdinals,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.OwnerID == "" || req.Query == "" {
		writeError(w, http.StatusBadRequest, "owner_id and query are required")
		return
	}

	results, err := s.searcher.Search(r.Context(), req.OwnerID, req.Query, search.Mode(req.Mode), req.Limit)
	if err != nil {
		if errors.Is(err, storage.ErrQdrantUnreachable) {
			writeError(w, http.StatusServiceUnavailable, "storage backend unavailable")
			return
		}
		s.logger.Error("Search request failed", "owner", req.OwnerID, "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if results == nil {
		results = []search.Result{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: results})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health.Health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

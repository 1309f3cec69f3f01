package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/tidescan/tidescan/internal/config"
	"github.com/tidescan/tidescan/internal/service"
	"github.com/tidescan/tidescan/internal/storage"
)

// Version is the API version reported by the health endpoint.
const Version = "0.3.0"

// maxAnalyzeBodyBytes bounds the request body for POST /api/analyze. A batch
// of a few thousand items with embeddings stays well under this.
const maxAnalyzeBodyBytes = 32 << 20

// APIHandlers contains HTTP handlers for the REST API.
type APIHandlers struct {
	analyzer *service.Analyzer
	config   *config.Config
}

// NewAPIHandlers creates a new APIHandlers instance.
func NewAPIHandlers(analyzer *service.Analyzer, cfg *config.Config) *APIHandlers {
	return &APIHandlers{
		analyzer: analyzer,
		config:   cfg,
	}
}

// Analyze handles POST /api/analyze - run a saturation analysis for an idea.
// The analysis runs synchronously; progress updates stream over the websocket
// while the request is in flight.
func (h *APIHandlers) Analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAnalyzeBodyBytes)

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}

	if req.Idea == "" {
		respondError(w, http.StatusBadRequest, "idea is required", nil)
		return
	}

	result, err := h.analyzer.AnalyzeIdea(r.Context(), req.Idea, req.Items)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidInput) {
			respondError(w, http.StatusBadRequest, "invalid analysis request", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "analysis failed", err)
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

// ListAnalyses handles GET /api/analyses - list stored results with pagination.
func (h *APIHandlers) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	opts := storage.ListOptions{
		Page:  parseInt(r.URL.Query().Get("page"), 1),
		Limit: parseInt(r.URL.Query().Get("limit"), 10),
	}
	opts.Normalize()

	result, err := h.analyzer.ListAnalyses(r.Context(), opts)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list analyses", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetAnalysis handles GET /api/analyses/{id} - get a stored result by ID.
func (h *APIHandlers) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "analysis ID is required", nil)
		return
	}

	result, err := h.analyzer.GetAnalysis(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "analysis not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to get analysis", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// DeleteAnalysis handles DELETE /api/analyses/{id} - delete a stored result.
func (h *APIHandlers) DeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "analysis ID is required", nil)
		return
	}

	if err := h.analyzer.DeleteAnalysis(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "analysis not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete analysis", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Health handles GET /api/health - liveness check.
func (h *APIHandlers) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
	})
}

// Helper functions

// parseInt parses an integer from a string, returning defaultValue if parsing fails.
func parseInt(s string, defaultValue int) int {
	if s == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return val
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// If encoding fails, log but don't try to write another response
		// (headers already sent)
		fmt.Printf("failed to encode JSON response: %v\n", err)
	}
}

// respondError writes an error response with the given status code.
func respondError(w http.ResponseWriter, statusCode int, message string, err error) {
	errResp := ErrorResponse{
		Error: message,
		Code:  http.StatusText(statusCode),
	}

	if err != nil {
		errResp.Details = map[string]interface{}{
			"error": err.Error(),
		}
	}

	respondJSON(w, statusCode, errResp)
}

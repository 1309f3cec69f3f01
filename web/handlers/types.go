package handlers

import "github.com/tidescan/tidescan/pkg/types"

// ErrorResponse is the standard error response format for the API.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// AnalyzeRequest is the request body for POST /api/analyze. Items is
// optional: when omitted, candidates come from the content corpus.
type AnalyzeRequest struct {
	Idea  string              `json:"idea"`
	Items []types.ContentItem `json:"items,omitempty"`
}

// HealthResponse is the response format for GET /api/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ProgressMessage is the envelope broadcast to websocket clients while an
// analysis runs.
type ProgressMessage struct {
	Type       string `json:"type"`
	AnalysisID string `json:"analysis_id"`
	Stage      string `json:"stage"`
	Message    string `json:"message"`
}

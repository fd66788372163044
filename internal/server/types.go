package server

import "github.com/fawad-qureshi/solana-liquidity-depth/internal/models"

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK bool `json:"ok"` // Service health status
}

// DepthResponse wraps a depth snapshot with cache provenance
type DepthResponse struct {
	*models.DepthSnapshot
	Cached bool `json:"cached"` // True when served from the snapshot cache
}

// PairUpsertRequest represents a request to register or update a watched pair
type PairUpsertRequest struct {
	InputMint  string `json:"input_mint"`
	OutputMint string `json:"output_mint"`
	Label      string `json:"label"`   // Optional; derived from symbols when empty
	Enabled    bool   `json:"enabled"` // Whether the monitor should probe this pair
}

// PairUpdateRequest represents a request to update an existing watched pair
type PairUpdateRequest struct {
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
}

// AIAskRequest represents a natural language query request
type AIAskRequest struct {
	Question string `json:"question"` // Natural language question about depth data
	Model    string `json:"model"`    // Optional AI model override
}

// AIAskResponse represents the response from an AI query
type AIAskResponse struct {
	SQL    string `json:"sql"`     // Generated SQL query
	Answer string `json:"answer"`  // Natural language answer
	TookMs int64  `json:"took_ms"` // Execution time in milliseconds
}

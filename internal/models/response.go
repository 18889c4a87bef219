package models

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// ChatResponse is returned by POST /api/v1/chat
type ChatResponse struct {
	Status    string   `json:"status"`
	Input     string   `json:"input"`
	Output    string   `json:"output"`
	ToolsUsed []string `json:"tools_used"`
	Escalated bool     `json:"escalated"`
	Rounds    int      `json:"rounds"`
}

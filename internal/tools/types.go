// Package tools defines the Tool type and the tagged Result shared by the
// agent and the individual tool implementations.
package tools

import "context"

// Status tags the outcome of a tool call.
type Status string

const (
	StatusOK       Status = "ok"
	StatusNotFound Status = "not_found"
	StatusFailed   Status = "failed"
)

// Result carries the text handed back to the model together with a status the
// orchestrator can branch on. Content is always populated, including on failure.
type Result struct {
	Status  Status
	Content string
	Err     error
}

// Failed reports whether the call hit a backend error.
func (r Result) Failed() bool { return r.Status == StatusFailed }

// Tool represents a callable function the LLM can invoke
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]interface{}
	Execute     func(ctx context.Context, input map[string]interface{}) Result
}

// stringArgSchema is the JSON schema of a tool taking a single required string.
func stringArgSchema(name, description string) map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			name: map[string]interface{}{
				"type":        "string",
				"description": description,
			},
		},
		"required": []string{name},
	}
}

// stringArg extracts a required string argument.
func stringArg(input map[string]interface{}, name string) (string, bool) {
	v, ok := input[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

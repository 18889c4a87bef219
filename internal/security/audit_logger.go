package security

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/rs/zerolog/log"
)

const previewLength = 80

// AuditLogger logs security-relevant events with hashed identifiers
type AuditLogger struct {
	enabled bool
	masker  *DataMasker
}

func NewAuditLogger(enabled bool) *AuditLogger {
	return &AuditLogger{enabled: enabled, masker: NewDataMasker()}
}

// ChatEvent describes one completed or failed chat turn.
type ChatEvent struct {
	RequestID  string
	Input      string
	APIKey     string
	ToolsUsed  []string
	Escalated  bool
	Rounds     int
	DurationMs int64
	Success    bool
	Error      string
}

// LogChat records a chat turn.
func (a *AuditLogger) LogChat(e ChatEvent) {
	if !a.enabled {
		return
	}
	evt := log.Info().
		Str("event", "chat_audit").
		Str("request_id", e.RequestID).
		Str("input_hash", hashStr(e.Input)).
		Str("input_preview", a.masker.Preview(e.Input, previewLength)).
		Str("api_key_hash", hashStr(e.APIKey)).
		Strs("tools_used", e.ToolsUsed).
		Bool("escalated", e.Escalated).
		Int("rounds", e.Rounds).
		Int64("execution_time_ms", e.DurationMs).
		Bool("success", e.Success)

	if e.Error != "" {
		evt = evt.Str("error", e.Error)
	}
	evt.Msg("audit")
}

// LogRejected records input refused before reaching the model.
func (a *AuditLogger) LogRejected(requestID, input, apiKey, reason string) {
	if !a.enabled {
		return
	}
	log.Warn().
		Str("event", "chat_rejected").
		Str("request_id", requestID).
		Str("input_hash", hashStr(input)).
		Str("api_key_hash", hashStr(apiKey)).
		Str("reason", reason).
		Msg("audit")
}

// hashStr returns the first 16 hex characters of the SHA-256 of s.
func hashStr(s string) string {
	if s == "" {
		return ""
	}
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])[:16]
}

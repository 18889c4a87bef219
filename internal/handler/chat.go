package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/synapseai/synapse/internal/agent"
	"github.com/synapseai/synapse/internal/metrics"
	"github.com/synapseai/synapse/internal/middleware"
	"github.com/synapseai/synapse/internal/models"
	"github.com/synapseai/synapse/internal/security"
)

const maxBodyBytes = 1 << 20

// Agent runs one support turn.
type Agent interface {
	Run(ctx context.Context, input string, history []agent.Turn) (*agent.Result, error)
}

// ChatHandler handles POST /api/v1/chat
type ChatHandler struct {
	agent          Agent
	validator      *security.PromptValidator
	audit          *security.AuditLogger
	metrics        *metrics.Metrics
	defaultTimeout int
	apiKeyHeader   string
}

func NewChatHandler(
	a Agent,
	validator *security.PromptValidator,
	audit *security.AuditLogger,
	m *metrics.Metrics,
	defaultTimeout int,
	apiKeyHeader string,
) *ChatHandler {
	return &ChatHandler{
		agent:          a,
		validator:      validator,
		audit:          audit,
		metrics:        m,
		defaultTimeout: defaultTimeout,
		apiKeyHeader:   apiKeyHeader,
	}
}

// Chat handles POST /api/v1/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := middleware.GetRequestID(r.Context())
	apiKey := r.Header.Get(h.apiKeyHeader)

	var req models.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.SetDefaults(h.defaultTimeout)

	if v := h.validator.Validate(req.Input); !v.Valid {
		h.audit.LogRejected(requestID, req.Input, apiKey, v.Message)
		h.metrics.ObserveRejected()
		models.WriteError(w, http.StatusBadRequest, v.Message)
		return
	}
	if err := req.Validate(); err != nil {
		models.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	// history turns get the same screening as input
	for i, t := range req.ChatHistory {
		if t.Content == "" {
			continue
		}
		if v := h.validator.Validate(t.Content); !v.Valid {
			msg := fmt.Sprintf("chat_history[%d]: %s", i, v.Message)
			h.audit.LogRejected(requestID, t.Content, apiKey, msg)
			h.metrics.ObserveRejected()
			models.WriteError(w, http.StatusBadRequest, msg)
			return
		}
	}

	history := make([]agent.Turn, 0, len(req.ChatHistory))
	for _, t := range req.ChatHistory {
		history = append(history, agent.Turn{Role: agent.Role(t.Role), Content: t.Content})
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(req.Timeout)*time.Second)
	defer cancel()

	result, err := h.agent.Run(ctx, req.Input, history)
	event := security.ChatEvent{
		RequestID:  requestID,
		Input:      req.Input,
		APIKey:     apiKey,
		DurationMs: time.Since(start).Milliseconds(),
		Success:    err == nil,
	}
	if err != nil {
		event.Error = err.Error()
		h.audit.LogChat(event)
		log.Error().Err(err).Str("request_id", requestID).Msg("chat turn failed")

		if errors.Is(err, context.DeadlineExceeded) {
			h.metrics.ObserveTurn(metrics.OutcomeTimeout, time.Since(start), nil, false, 0)
			models.WriteError(w, http.StatusGatewayTimeout, "agent timed out")
			return
		}
		h.metrics.ObserveTurn(metrics.OutcomeError, time.Since(start), nil, false, 0)
		models.WriteError(w, http.StatusBadGateway, err.Error())
		return
	}

	event.ToolsUsed = result.ToolsUsed
	event.Escalated = result.Escalated
	event.Rounds = result.Rounds
	h.audit.LogChat(event)
	h.metrics.ObserveTurn(metrics.OutcomeSuccess, time.Since(start), result.ToolsUsed, result.Escalated, result.Rounds)

	toolsUsed := result.ToolsUsed
	if toolsUsed == nil {
		toolsUsed = []string{}
	}
	models.WriteJSON(w, http.StatusOK, models.ChatResponse{
		Status:    "success",
		Input:     req.Input,
		Output:    result.Output,
		ToolsUsed: toolsUsed,
		Escalated: result.Escalated,
		Rounds:    result.Rounds,
	})
}

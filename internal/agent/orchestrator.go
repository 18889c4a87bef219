package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/synapseai/synapse/internal/tools"
)

// Phase is the orchestrator's position in a single turn.
type Phase string

const (
	PhaseStart      Phase = "start"
	PhaseRetrieving Phase = "retrieving"
	PhaseDeciding   Phase = "deciding"
	PhaseEscalating Phase = "escalating"
	PhaseResponding Phase = "responding"
	PhaseDone       Phase = "done"
)

// DefaultMaxRounds bounds the tool-calling rounds per turn.
const DefaultMaxRounds = 8

// Turn is a prior conversation message supplied by the caller.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Result is the outcome of one turn.
type Result struct {
	Output    string
	ToolsUsed []string
	Escalated bool
	Rounds    int
}

// Orchestrator maps an utterance to a reply by letting the model call the
// retrieval and escalation tools. It holds no per-conversation state.
type Orchestrator struct {
	model     Model
	tools     map[string]tools.Tool
	toolList  []tools.Tool
	system    string
	maxRounds int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithMaxRounds(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxRounds = n
		}
	}
}

func WithSystemPrompt(prompt string) Option {
	return func(o *Orchestrator) { o.system = prompt }
}

func NewOrchestrator(model Model, toolset []tools.Tool, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		model:     model,
		tools:     make(map[string]tools.Tool, len(toolset)),
		toolList:  toolset,
		system:    SystemPrompt,
		maxRounds: DefaultMaxRounds,
	}
	for _, t := range toolset {
		o.tools[t.Name] = t
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// turnState enforces retrieval-before-escalation within one turn.
type turnState struct {
	phase              Phase
	input              string
	retrieved          bool
	escalationAttempts int
	result             *Result
}

func (s *turnState) enter(p Phase) {
	if s.phase == p {
		return
	}
	log.Debug().Str("from", string(s.phase)).Str("to", string(p)).Msg("agent phase")
	s.phase = p
}

// Run executes one turn. Model errors that survive retries are returned;
// tool failures are handed back to the model instead.
func (o *Orchestrator) Run(ctx context.Context, input string, history []Turn) (*Result, error) {
	msgs := make([]Message, 0, len(history)+1)
	for _, h := range history {
		role := RoleUser
		if h.Role == RoleAssistant {
			role = RoleAssistant
		}
		// providers require the conversation to open with a user message
		if role == RoleAssistant && len(msgs) == 0 {
			continue
		}
		msgs = append(msgs, Message{Role: role, Text: h.Content})
	}
	msgs = append(msgs, Message{Role: RoleUser, Text: input})

	st := &turnState{phase: PhaseStart, input: input, result: &Result{}}

	for round := 1; round <= o.maxRounds; round++ {
		st.result.Rounds = round
		resp, err := o.model.Generate(ctx, &Request{System: o.system, Messages: msgs, Tools: o.toolList})
		if err != nil {
			return nil, fmt.Errorf("model call failed (round %d): %w", round, err)
		}

		log.Debug().
			Int("round", round).
			Str("stop_reason", resp.StopReason).
			Int("tool_calls", len(resp.ToolCalls)).
			Msg("agent iteration")

		if len(resp.ToolCalls) == 0 {
			return o.finish(st, resp.Text), nil
		}

		msgs = append(msgs, Message{Role: RoleAssistant, Text: resp.Text, ToolCalls: resp.ToolCalls})
		results := make([]ToolResult, 0, len(resp.ToolCalls))
		retrievedBefore := st.retrieved
		for _, tc := range resp.ToolCalls {
			results = append(results, o.execute(ctx, st, tc, retrievedBefore))
		}
		msgs = append(msgs, Message{Role: RoleTool, Results: results})
		st.enter(PhaseDeciding)
	}

	log.Warn().Int("max_rounds", o.maxRounds).Msg("agent round limit reached, requesting final answer")
	msgs = append(msgs, Message{Role: RoleUser, Text: finalAnswerNudge})
	resp, err := o.model.Generate(ctx, &Request{System: o.system, Messages: msgs, Tools: o.toolList})
	if err != nil {
		log.Warn().Err(err).Msg("final answer call failed")
		return o.finish(st, ""), nil
	}
	// tool requests in the final call are not executed
	return o.finish(st, resp.Text), nil
}

func (o *Orchestrator) finish(st *turnState, text string) *Result {
	st.enter(PhaseResponding)
	if strings.TrimSpace(text) == "" {
		text = FallbackReply
	}
	st.result.Output = text
	st.enter(PhaseDone)
	return st.result
}

// execute runs one tool call. retrievedBefore is whether a retrieval result was
// already visible to the model when it issued the call.
func (o *Orchestrator) execute(ctx context.Context, st *turnState, tc ToolCall, retrievedBefore bool) ToolResult {
	reject := func(content string) ToolResult {
		log.Warn().Str("tool", tc.Name).Str("reason", content).Msg("tool call rejected")
		return ToolResult{CallID: tc.ID, Name: tc.Name, Content: content, IsError: true}
	}

	tool, ok := o.tools[tc.Name]
	if !ok {
		return reject(unknownToolMessage + tc.Name)
	}
	if tc.Input == nil {
		return reject(invalidArgumentsMessage + tc.Name)
	}

	switch tc.Name {
	case tools.RetrievalToolName:
		st.enter(PhaseRetrieving)
	case tools.EscalationToolName:
		if !retrievedBefore {
			return reject(retrieveFirstMessage)
		}
		if st.escalationAttempts > 0 {
			return reject(alreadyEscalatedMessage)
		}
		st.escalationAttempts++
		st.enter(PhaseEscalating)
		// tickets always carry the customer's own words
		if q, _ := tc.Input["user_query"].(string); q != st.input {
			log.Debug().Str("model_query", q).Msg("escalation query replaced with the original utterance")
		}
		tc.Input = map[string]interface{}{"user_query": st.input}
	}

	res := tool.Execute(ctx, tc.Input)
	st.result.ToolsUsed = append(st.result.ToolsUsed, tc.Name)

	switch tc.Name {
	case tools.RetrievalToolName:
		st.retrieved = true
	case tools.EscalationToolName:
		if !res.Failed() {
			st.result.Escalated = true
		}
	}
	if res.Failed() {
		log.Warn().Err(res.Err).Str("tool", tc.Name).Msg("tool execution error")
	}
	return ToolResult{CallID: tc.ID, Name: tc.Name, Content: res.Content, IsError: res.Failed()}
}

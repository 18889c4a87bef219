package agent

// SystemPrompt instructs the model on tool order and tone.
const SystemPrompt = `You are Synapse AI (Tier-1 Support Agent).

Rules:
1. ALWAYS call support_faq_solver first.
2. If no data found → escalate using create_support_ticket_supabase.
3. Always respond politely.

Knowledge Base for Support:
- Password resets, account info, refunds, escalation rules, profile updates,
  login issues, security alerts, subscription plans, payment problems.
`

const (
	// FallbackReply is returned when no final answer could be produced.
	FallbackReply = "I'm sorry, I couldn't complete your request right now. Please try again later."

	finalAnswerNudge = "Please provide your final answer to the customer now without calling any more tools."

	retrieveFirstMessage    = "Rejected: call support_faq_solver and review its result before escalating."
	alreadyEscalatedMessage = "Rejected: this query has already been escalated in this conversation turn."
	unknownToolMessage      = "error: unknown tool: "
	invalidArgumentsMessage = "error: invalid arguments for "
)

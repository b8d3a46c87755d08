package model

import "time"

// TurnInput is what the HTTP layer hands to the agent for one message.
type TurnInput struct {
	ConversationID string
	Query          string
	Summary        string
	Session        Session
}

// TurnResult is the agent's answer plus the session to persist for the next turn.
type TurnResult struct {
	Response Response
	Session  Session
	Decision Decision
	Plan     Plan
	Drifted  bool
}

// Block is a guardrail verdict that short-circuits the turn.
type Block struct {
	Reason  string
	Message string
}

// Turn carries one message through the graph. Nodes fill it in stage by stage;
// it is owned by a single invocation and never shared.
type Turn struct {
	ConversationID string
	Query          string
	Summary        string

	// Session starts as the stored session and ends as the merged one.
	Session Session
	Block   *Block

	Candidates Candidates
	Plan       Plan
	Resolved   Resolved
	Drifted    bool
	Confidence float64
	Decision   Decision
}

// NewTurn seeds a Turn from the HTTP-facing input.
func NewTurn(in TurnInput) *Turn {
	return &Turn{
		ConversationID: in.ConversationID,
		Query:          in.Query,
		Summary:        in.Summary,
		Session:        in.Session,
	}
}

// TurnState is the graph-local state of one invocation.
// It is registered via compose.WithGenLocalState and only touched inside
// state handlers or compose.ProcessState.
type TurnState struct {
	ConversationID string
	StartedAt      time.Time
	Stages         []string
}

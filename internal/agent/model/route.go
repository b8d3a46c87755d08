package model

// Route names the handler a turn is dispatched to.
type Route string

const (
	RoutePartLookup               Route = "part_lookup"
	RouteCompatibility            Route = "compatibility"
	RouteCompatibilityUnvalidated Route = "compatibility_unvalidated"
	RouteSymptom                  Route = "symptom_troubleshoot"
	RouteSymptomUnvalidated       Route = "symptom_troubleshoot_unvalidated"
	RouteModelRequired            Route = "model_required"
	RouteIssueRequired            Route = "issue_required"
	RouteClarification            Route = "clarification"
	// Blocked turns never reach the router: guardrails answer them directly.
	RouteBlocked Route = "blocked"
	RouteError   Route = "error"
)

// Decision is the router's output: where to go, with what confidence, and
// the symptom to use (which may be carried over from the session).
type Decision struct {
	Route      Route   `json:"route"`
	Confidence float64 `json:"confidence"`
	Symptom    string  `json:"symptom,omitempty"`
	Reason     string  `json:"reason"`
}

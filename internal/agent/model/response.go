package model

// ResponseKind tags the variant of an agent response.
type ResponseKind string

const (
	KindPartLookup          ResponseKind = "part_lookup"
	KindCompatibility       ResponseKind = "compatibility"
	KindSymptomSolution     ResponseKind = "symptom_solution"
	KindModelRequired       ResponseKind = "model_required"
	KindIssueRequired       ResponseKind = "issue_required"
	KindClarificationNeeded ResponseKind = "clarification_needed"
)

// Response is the closed set of answers the agent can give. Only the variant
// types in this file implement it.
type Response interface {
	Kind() ResponseKind
	Header() Base
	isResponse()
}

// Base is the part every response variant shares.
type Base struct {
	Type                  ResponseKind `json:"type"`
	Confidence            float64      `json:"confidence"`
	RequiresClarification bool         `json:"requires_clarification"`
	Message               string       `json:"message,omitempty"`
}

func (b Base) Kind() ResponseKind { return b.Type }
func (b Base) Header() Base       { return b }

// NewBase builds a Base with confidence clamped to [0,1].
func NewBase(kind ResponseKind, confidence float64, requiresClarification bool, message string) Base {
	return Base{
		Type:                  kind,
		Confidence:            clamp01(confidence),
		RequiresClarification: requiresClarification,
		Message:               message,
	}
}

type PartLookupResponse struct {
	Base
	Part              Part         `json:"part"`
	Explanation       string       `json:"explanation"`
	InstallationSteps []string     `json:"installation_steps"`
	HelpfulTips       []string     `json:"helpful_tips"`
	RelatedParts      []ScoredPart `json:"related_parts"`
}

// CompatibilityResponse answers "does part X fit model Y". Compatible is nil
// when the model could not be verified.
type CompatibilityResponse struct {
	Base
	PartID                 string       `json:"part_id"`
	ModelID                string       `json:"model_id"`
	Compatible             *bool        `json:"compatible"`
	Part                   *Part        `json:"part,omitempty"`
	AlternativeParts       []ScoredPart `json:"alternative_parts"`
	Explanation            string       `json:"explanation"`
	HelpfulTips            []string     `json:"helpful_tips"`
	ClarificationQuestions []string     `json:"clarification_questions,omitempty"`
}

type SymptomSolutionResponse struct {
	Base
	Symptom          string       `json:"symptom"`
	ModelID          string       `json:"model_id"`
	ModelVerified    bool         `json:"model_verified"`
	RecommendedParts []ScoredPart `json:"recommended_parts"`
	Explanation      string       `json:"explanation"`
	DiagnosticSteps  []string     `json:"diagnostic_steps"`
	HelpfulTips      []string     `json:"helpful_tips"`
}

// DetectedInfo echoes what was understood when the agent needs more input.
type DetectedInfo struct {
	Intent     Intent `json:"intent,omitempty"`
	Symptom    string `json:"symptom,omitempty"`
	Appliance  string `json:"appliance,omitempty"`
	Brand      string `json:"brand,omitempty"`
	HasPart    bool   `json:"has_part"`
	HasModel   bool   `json:"has_model"`
	HasSymptom bool   `json:"has_symptom"`
}

type ModelRequiredResponse struct {
	Base
	ClarificationType string       `json:"clarification_type"`
	DetectedInfo      DetectedInfo `json:"detected_info"`
	HelpfulTips       []string     `json:"helpful_tips"`
}

type IssueRequiredResponse struct {
	Base
	ClarificationType      string   `json:"clarification_type"`
	ModelID                string   `json:"model_id"`
	ClarificationQuestions []string `json:"clarification_questions"`
}

// Clarification reasons.
const (
	ReasonAmbiguous  = "ambiguous"
	ReasonOutOfScope = "out_of_scope"
	ReasonLowSignal  = "low_signal"
	ReasonNonDomain  = "non_domain"
	ReasonNotFound   = "not_found"
	ReasonError      = "error"
)

type ClarificationResponse struct {
	Base
	Reason                 string        `json:"reason"`
	ClarificationQuestions []string      `json:"clarification_questions"`
	DetectedInfo           *DetectedInfo `json:"detected_info,omitempty"`
}

func (PartLookupResponse) isResponse()      {}
func (CompatibilityResponse) isResponse()   {}
func (SymptomSolutionResponse) isResponse() {}
func (ModelRequiredResponse) isResponse()   {}
func (IssueRequiredResponse) isResponse()   {}
func (ClarificationResponse) isResponse()   {}

var (
	_ Response = PartLookupResponse{}
	_ Response = CompatibilityResponse{}
	_ Response = SymptomSolutionResponse{}
	_ Response = ModelRequiredResponse{}
	_ Response = IssueRequiredResponse{}
	_ Response = ClarificationResponse{}
)

// DisplayText is the text a response shows first: its explanation when it has
// one, else its message.
func DisplayText(r Response) string {
	switch v := r.(type) {
	case PartLookupResponse:
		if v.Explanation != "" {
			return v.Explanation
		}
	case CompatibilityResponse:
		if v.Explanation != "" {
			return v.Explanation
		}
	case SymptomSolutionResponse:
		if v.Explanation != "" {
			return v.Explanation
		}
	case nil:
		return ""
	}
	return r.Header().Message
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

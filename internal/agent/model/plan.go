package model

// Intent is the classified purpose of a user message.
type Intent string

const (
	IntentPartLookup          Intent = "part_lookup"
	IntentInstallHelp         Intent = "install_help"
	IntentCompatibilityCheck  Intent = "compatibility_check"
	IntentSymptomTroubleshoot Intent = "symptom_troubleshoot"
	IntentGeneralQuestion     Intent = "general_question"
)

// ParseIntent maps a label onto the known intents; unknown labels become general_question.
func ParseIntent(s string) Intent {
	switch Intent(s) {
	case IntentPartLookup, IntentInstallHelp, IntentCompatibilityCheck, IntentSymptomTroubleshoot:
		return Intent(s)
	default:
		return IntentGeneralQuestion
	}
}

// IsLookup reports whether the intent asks about a specific part.
func (i Intent) IsLookup() bool {
	return i == IntentPartLookup || i == IntentInstallHelp
}

// PlanSource records how a plan was produced.
type PlanSource string

const (
	PlanFromClassifier PlanSource = "classifier"
	PlanFromFallback   PlanSource = "fallback"
	PlanFromFollowUp   PlanSource = "follow_up"
)

// Plan is the planner's structured reading of one message. Empty strings mean absent.
type Plan struct {
	Intent     Intent     `json:"intent"`
	PartID     string     `json:"part_id,omitempty"`
	ModelID    string     `json:"model_id,omitempty"`
	Symptom    string     `json:"symptom,omitempty"`
	Appliance  string     `json:"appliance,omitempty"`
	Brand      string     `json:"brand,omitempty"`
	Confidence float64    `json:"confidence"`
	Query      string     `json:"query,omitempty"`
	Source     PlanSource `json:"-"`
}

// Candidates are the syntactic identifiers pattern-matched from raw text.
type Candidates struct {
	PartID  string `json:"part_id,omitempty"`
	ModelID string `json:"model_id,omitempty"`
}

// Resolved is the validated entity record for one turn.
// PartIDValid implies PartID is set and known; ModelID may be set while ModelIDValid is false.
type Resolved struct {
	Intent       Intent `json:"intent"`
	PartID       string `json:"part_id,omitempty"`
	ModelID      string `json:"model_id,omitempty"`
	Symptom      string `json:"symptom,omitempty"`
	Appliance    string `json:"appliance,omitempty"`
	Brand        string `json:"brand,omitempty"`
	PartIDValid  bool   `json:"part_id_valid"`
	ModelIDValid bool   `json:"model_id_valid"`
}

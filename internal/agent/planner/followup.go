package planner

import (
	"strings"

	"github.com/partdesk-core-poc-v1/server/internal/agent/model"
)

// FollowUp recognizes messages that continue a troubleshooting thread, such as
// "walk me through it step by step". The phrase list is configuration; matching
// is a case-insensitive substring test and carries no semantic guarantee.
type FollowUp struct {
	phrases    []string
	confidence float64
}

// NewFollowUp normalizes the phrase list.
func NewFollowUp(phrases []string, confidence float64) *FollowUp {
	f := &FollowUp{confidence: confidence}
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			f.phrases = append(f.phrases, p)
		}
	}
	return f
}

// Plan synthesizes a troubleshooting plan from the session when the session
// carries a prior symptom and message contains a follow-up phrase.
func (f *FollowUp) Plan(session model.Session, message string) (model.Plan, bool) {
	if f == nil || session.LastSymptom == "" {
		return model.Plan{}, false
	}
	lower := strings.ToLower(message)
	for _, phrase := range f.phrases {
		if strings.Contains(lower, phrase) {
			return model.Plan{
				Intent:     model.IntentSymptomTroubleshoot,
				ModelID:    session.ModelID,
				Symptom:    session.LastSymptom,
				Appliance:  session.Appliance,
				Brand:      session.Brand,
				Confidence: f.confidence,
				Query:      session.LastSymptom,
				Source:     model.PlanFromFollowUp,
			}, true
		}
	}
	return model.Plan{}, false
}

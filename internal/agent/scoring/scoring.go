// Package scoring computes the turn confidence from extraction, validation,
// planner and session signals.
package scoring

import (
	"math"

	"github.com/partdesk-core-poc-v1/server/internal/agent/model"
)

// Signal weights. UnvalidatedModel is configurable and defaults to 0.08.
const (
	PartMatchWeight      = 0.10
	ModelMatchWeight     = 0.10
	PartValidWeight      = 0.15
	ModelValidWeight     = 0.15
	PlannerWeight        = 0.4
	ContinuityWeight     = 0.05
	PriorSymptomWeight   = 0.05
	defaultUnvalidatedID = 0.08
)

type Scorer struct {
	unvalidatedModel float64
}

// New returns a Scorer giving unvalidatedModel credit to a present but unknown model.
func New(unvalidatedModel float64) *Scorer {
	if unvalidatedModel < 0 || math.IsNaN(unvalidatedModel) {
		unvalidatedModel = defaultUnvalidatedID
	}
	return &Scorer{unvalidatedModel: unvalidatedModel}
}

// Score sums the signals and caps the result at 1. Every term is non-negative,
// so adding a signal never lowers the score. session is the session after any
// drift reset.
func (s *Scorer) Score(r model.Resolved, plan model.Plan, c model.Candidates, session model.Session) float64 {
	score := 0.0
	if c.PartID != "" && r.PartID == c.PartID {
		score += PartMatchWeight
	}
	if c.ModelID != "" && r.ModelID == c.ModelID {
		score += ModelMatchWeight
	}
	if r.PartIDValid {
		score += PartValidWeight
	}
	switch {
	case r.ModelIDValid:
		score += ModelValidWeight
	case r.ModelID != "":
		score += s.unvalidatedModel
	}
	score += math.Max(0, math.Min(1, plan.Confidence)) * PlannerWeight
	if session.ModelID != "" && r.Symptom != "" {
		score += ContinuityWeight
	}
	if session.LastSymptom != "" {
		score += PriorSymptomWeight
	}
	return math.Min(score, 1.0)
}

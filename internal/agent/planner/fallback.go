package planner

import (
	"strings"

	"github.com/partdesk-core-poc-v1/server/internal/agent/extract"
	"github.com/partdesk-core-poc-v1/server/internal/agent/model"
)

const (
	fallbackPartConfidence    = 0.55
	fallbackGeneralConfidence = 0.3
)

// FallbackPlan is the deterministic plan used when the classifier cannot be
// used. It only looks at identifiers in the user's own message.
func FallbackPlan(message string) model.Plan {
	c := extract.Extract(message)
	p := model.Plan{
		PartID:  c.PartID,
		ModelID: c.ModelID,
		Query:   strings.ToLower(strings.TrimSpace(message)),
		Source:  model.PlanFromFallback,
	}
	if c.PartID != "" {
		p.Intent = model.IntentPartLookup
		p.Confidence = fallbackPartConfidence
	} else {
		p.Intent = model.IntentGeneralQuestion
		p.Confidence = fallbackGeneralConfidence
	}
	return p
}

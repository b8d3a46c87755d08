// Package guardrails keeps the agent inside its domain: cheap pre-filters run
// before planning, the scope check and topic-drift check run after resolution.
package guardrails

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/partdesk-core-poc-v1/server/internal/agent/model"
)

// Block reasons, also used as metric labels.
const (
	BlockUnsupportedAppliance = "unsupported_appliance"
	BlockOutOfScopeKeyword    = "out_of_scope_keyword"
	BlockLowSignal            = "low_signal"
	BlockNonDomain            = "non_domain"
)

// SupportedAppliances are the appliance types the agent answers for.
var SupportedAppliances = map[string]struct{}{
	"refrigerator": {},
	"dishwasher":   {},
	"fridge":       {},
}

// OutOfScopeKeywords are checked in order as whole words against the query.
var OutOfScopeKeywords = []string{
	"oven", "stove", "range", "microwave", "dryer",
	"washing machine", "clothes washer", "furnace", "hvac",
	"water heater", "garbage disposal", "air conditioner", "ac",
}

type keywordPattern struct {
	keyword string
	re      *regexp.Regexp
}

var outOfScopePatterns = compileKeywords(OutOfScopeKeywords)

func compileKeywords(words []string) []keywordPattern {
	out := make([]keywordPattern, 0, len(words))
	for _, w := range words {
		out = append(out, keywordPattern{
			keyword: w,
			re:      regexp.MustCompile(`\b` + regexp.QuoteMeta(w) + `\b`),
		})
	}
	return out
}

// CheckScope returns a Block when the turn is outside the supported appliances.
// Tiers, first match wins: an identified appliance decides alone; a part or
// model id implies scope; an out-of-scope keyword in the query rejects;
// everything else is accepted.
func CheckScope(query string, r model.Resolved) *model.Block {
	if r.Appliance != "" {
		if _, ok := SupportedAppliances[strings.ToLower(strings.TrimSpace(r.Appliance))]; ok {
			return nil
		}
		return &model.Block{
			Reason: BlockUnsupportedAppliance,
			Message: fmt.Sprintf(
				"I can only help with refrigerator and dishwasher parts. For %s issues, please contact a specialist.",
				r.Appliance),
		}
	}
	if r.PartID != "" || r.ModelID != "" {
		return nil
	}

	lower := strings.ToLower(query)
	for _, kp := range outOfScopePatterns {
		if kp.re.MatchString(lower) {
			return &model.Block{
				Reason: BlockOutOfScopeKeyword,
				Message: fmt.Sprintf(
					"I specialize in refrigerator and dishwasher parts only. For %s repairs, please consult a qualified appliance technician or the manufacturer.",
					kp.keyword),
			}
		}
	}
	// a symptom without an appliance is ambiguous but plausible
	return nil
}

// Drifted reports whether the turn names a different appliance than the session.
// The caller must reset the session before merging when it does.
func Drifted(session model.Session, r model.Resolved) bool {
	prev := model.CanonicalAppliance(session.Appliance)
	cur := model.CanonicalAppliance(r.Appliance)
	return prev != "" && cur != "" && prev != cur
}

package guardrails

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/partdesk-core-poc-v1/server/internal/agent/extract"
	"github.com/partdesk-core-poc-v1/server/internal/agent/model"
)

const (
	lowSignalMessage = "I didn't catch that. I can help with refrigerator and dishwasher parts: tell me a part number, your model number, or what's going wrong."
	nonDomainMessage = "I can only help with refrigerator and dishwasher parts, installation and repairs."
	minAlnum         = 3
)

// NonDomainMarkers flag general-knowledge questions.
var NonDomainMarkers = []string{
	"capital of", "what time", "weather", "who is", "who was", "stock price",
	"tell me a joke", "recipe", "population of", "translate",
}

// ApplianceTerms keep a message in the domain even when it matches a marker.
var ApplianceTerms = []string{
	"refrigerator", "fridge", "dishwasher", "freezer", "ice maker", "appliance",
}

var (
	wordPattern       = regexp.MustCompile(`\p{L}{2,}`)
	nonDomainPatterns = compileKeywords(NonDomainMarkers)
)

// Prefilter answers messages that need no planning at all. It returns nil when
// the message should go through the full pipeline.
func Prefilter(message string) *model.Block {
	if lowSignal(message) {
		return &model.Block{Reason: BlockLowSignal, Message: lowSignalMessage}
	}
	if nonDomain(message) {
		return &model.Block{Reason: BlockNonDomain, Message: nonDomainMessage}
	}
	return nil
}

func lowSignal(message string) bool {
	msg := strings.TrimSpace(message)
	if msg == "" {
		return true
	}
	alnum := 0
	for _, r := range msg {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum++
		}
	}
	if alnum < minAlnum {
		return true
	}
	if wordPattern.MatchString(msg) {
		return false
	}
	c := extract.Extract(msg)
	return c.PartID == "" && c.ModelID == ""
}

func nonDomain(message string) bool {
	lower := strings.ToLower(message)
	marked := false
	for _, kp := range nonDomainPatterns {
		if kp.re.MatchString(lower) {
			marked = true
			break
		}
	}
	if !marked {
		return false
	}
	if c := extract.Extract(message); c.PartID != "" || c.ModelID != "" {
		return false
	}
	for _, term := range ApplianceTerms {
		if strings.Contains(lower, term) {
			return false
		}
	}
	return true
}

// Package extract pulls syntactic part and model identifier candidates out of
// free text. It performs no I/O.
package extract

import (
	"regexp"
	"strings"

	"github.com/partdesk-core-poc-v1/server/internal/agent/model"
)

// PartPrefix is the prefix every canonical part identifier carries.
const PartPrefix = "PS"

var (
	// PartPattern matches a part identifier in uppercased text.
	PartPattern = regexp.MustCompile(`\bPS\d{5,}\b`)
	// ModelPattern matches a model-like token in uppercased text.
	ModelPattern = regexp.MustCompile(`\b[A-Z0-9]{6,15}\b`)
)

// Extract returns the first part identifier and the first acceptable model
// identifier found in text. Matching is case-insensitive.
func Extract(text string) model.Candidates {
	clean := strings.ToUpper(strings.TrimSpace(text))
	return model.Candidates{
		PartID:  PartID(clean),
		ModelID: ModelID(clean),
	}
}

// PartID returns the first part identifier in upper, or "".
func PartID(upper string) string {
	return PartPattern.FindString(upper)
}

// ModelID returns the first model-like token in upper that is neither a part
// identifier nor purely alphabetic, or "".
func ModelID(upper string) string {
	for _, tok := range ModelPattern.FindAllString(upper, -1) {
		if IsModelLike(tok) {
			return tok
		}
	}
	return ""
}

// IsModelLike reports whether tok can be a model identifier: it must contain a
// digit and must not start with the part prefix.
func IsModelLike(tok string) bool {
	if strings.HasPrefix(tok, PartPrefix) {
		return false
	}
	return strings.ContainsAny(tok, "0123456789")
}

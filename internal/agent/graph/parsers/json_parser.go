package parsers

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/partdesk-core-poc-v1/server/internal/agent/model"
	"github.com/partdesk-core-poc-v1/server/internal/core"
	errx "github.com/partdesk-core-poc-v1/server/internal/core/error"
	logx "github.com/partdesk-core-poc-v1/server/pkg/logger"
)

// basic safety limits to avoid pathological inputs
const (
	maxContentLen = 64 * 1024
	maxErrSnippet = 200
)

var (
	ErrNoJSONObject = errors.New("no json object in reply")
	ErrUnbalanced   = errors.New("unbalanced json object in reply")
)

// ExtractJSONObject returns the JSON object embedded in a model reply.
// Fenced replies are cut from the first '{' to the last '}'; otherwise the
// first balanced object is located by brace counting, skipping string contents.
func ExtractJSONObject(content string) (string, error) {
	if len(content) > maxContentLen {
		logx.Warn().
			Str("component", "json_parser").
			Int("max_len", maxContentLen).
			Int("orig_len", len(content)).
			Msg("content truncated due to size limit")
		content = content[:maxContentLen]
	}
	s := strings.TrimSpace(content)

	if strings.HasPrefix(s, "```") {
		start := strings.Index(s, "{")
		end := strings.LastIndex(s, "}")
		if start < 0 || end < start {
			return "", ErrNoJSONObject
		}
		return s[start : end+1], nil
	}

	start := strings.Index(s, "{")
	if start < 0 {
		return "", ErrNoJSONObject
	}
	end := findObjectEnd(s, start)
	if end < 0 {
		return "", ErrUnbalanced
	}
	return s[start:end], nil
}

// findObjectEnd returns the index just past the brace closing the object that
// opens at start, or -1.
func findObjectEnd(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

// ParseJSON extracts the object from a reply and decodes it into v.
func ParseJSON(content string, v any) error {
	obj, err := ExtractJSONObject(content)
	if err != nil {
		return fmt.Errorf("%w: %s", err, safeSnippet(content))
	}
	if err := json.Unmarshal([]byte(obj), v); err != nil {
		return fmt.Errorf("decode reply: %w: %s", err, safeSnippet(obj))
	}
	return nil
}

// ParsePlan parses and cleans a classifier reply. Any failure is reported as
// errx.ErrClassifierMalformed.
func ParsePlan(content string) (plan model.Plan, err error) {
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "json_parser").Msgf("panic recovered: %v", r)
			err = errx.Wrap(errx.ErrClassifierMalformed, fmt.Errorf("plan parser panic: %v", r))
			plan = model.Plan{}
		}
	}()

	var raw map[string]any
	if perr := ParseJSON(content, &raw); perr != nil {
		return model.Plan{}, errx.Wrap(errx.ErrClassifierMalformed, perr)
	}
	return CleanPlan(raw), nil
}

// CleanPlan applies defaults and normalization to a decoded plan object:
// intent defaults to general_question, confidence to 0.5 clamped to [0,1],
// null-like strings become empty, and ids are uppercased.
func CleanPlan(raw map[string]any) model.Plan {
	p := model.Plan{
		Intent:     model.ParseIntent(entity(raw["intent"])),
		PartID:     strings.ToUpper(entity(raw["part_id"])),
		ModelID:    strings.ToUpper(entity(raw["model_id"])),
		Symptom:    entity(raw["symptom"]),
		Appliance:  entity(raw["appliance"]),
		Brand:      entity(raw["brand"]),
		Query:      entity(raw["query"]),
		Confidence: confidence(raw["confidence"]),
		Source:     model.PlanFromClassifier,
	}
	return p
}

// entity turns a decoded JSON value into a trimmed string; JSON null and the
// strings "null", "None" and "" all become "".
func entity(v any) string {
	var s string
	switch vv := v.(type) {
	case nil:
		return ""
	case string:
		s = vv
	case float64:
		s = strconv.FormatFloat(vv, 'f', -1, 64)
	default:
		s = fmt.Sprint(vv)
	}
	s = strings.TrimSpace(s)
	switch s {
	case "null", "None", "none", "NULL":
		return ""
	}
	return s
}

func confidence(v any) float64 {
	const def = 0.5
	var f float64
	switch vv := v.(type) {
	case float64:
		f = vv
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(vv), 64)
		if err != nil {
			return def
		}
		f = parsed
	default:
		return def
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return math.Max(0, math.Min(1, f))
}

func safeSnippet(s string) string {
	s = strings.TrimSpace(s)
	return core.TruncateRunes(s, maxErrSnippet)
}

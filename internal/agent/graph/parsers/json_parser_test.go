package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partdesk-core-poc-v1/server/internal/agent/model"
	errx "github.com/partdesk-core-poc-v1/server/internal/core/error"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantErr error
	}{
		{"bare", `{"a":1}`, `{"a":1}`, nil},
		{"fenced", "```json\n{\"a\":{\"b\":2}}\n```", `{"a":{"b":2}}`, nil},
		{"prose around", `Sure! {"a":"}"} hope that helps {"b":1}`, `{"a":"}"}`, nil},
		{"escaped quote", `{"a":"say \"hi\" {"}`, `{"a":"say \"hi\" {"}`, nil},
		{"no object", "I cannot help", "", ErrNoJSONObject},
		{"unbalanced", `{"a": {"b": 1}`, "", ErrUnbalanced},
		{"fence without object", "```\nnothing\n```", "", ErrNoJSONObject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSONObject(tt.content)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePlanCleans(t *testing.T) {
	reply := "```json\n" + `{
		"intent": "compatibility_check",
		"confidence": 1.7,
		"part_id": " ps11752778 ",
		"model_id": "wdt780saem1",
		"symptom": "None",
		"appliance": "null",
		"brand": "",
		"query": "compatibility check"
	}` + "\n```"

	plan, err := ParsePlan(reply)
	require.NoError(t, err)
	assert.Equal(t, model.Plan{
		Intent:     model.IntentCompatibilityCheck,
		PartID:     "PS11752778",
		ModelID:    "WDT780SAEM1",
		Confidence: 1.0,
		Query:      "compatibility check",
		Source:     model.PlanFromClassifier,
	}, plan)
}

func TestParsePlanDefaults(t *testing.T) {
	plan, err := ParsePlan(`{"symptom": "leaking"}`)
	require.NoError(t, err)
	assert.Equal(t, model.IntentGeneralQuestion, plan.Intent)
	assert.Equal(t, 0.5, plan.Confidence)
	assert.Equal(t, "leaking", plan.Symptom)

	plan, err = ParsePlan(`{"intent": "symptom_troubleshoot", "confidence": "0.8"}`)
	require.NoError(t, err)
	assert.Equal(t, 0.8, plan.Confidence)

	plan, err = ParsePlan(`{"confidence": -3}`)
	require.NoError(t, err)
	assert.Equal(t, 0.0, plan.Confidence)
}

func TestParsePlanMalformed(t *testing.T) {
	for _, content := range []string{"", "no json here", `{"intent": }`, `{"intent": "x"`} {
		_, err := ParsePlan(content)
		assert.ErrorIs(t, err, errx.ErrClassifierMalformed, content)
	}
}

func TestParseJSONInto(t *testing.T) {
	var out struct {
		Explanation string   `json:"explanation"`
		Steps       []string `json:"installation_steps"`
	}
	require.NoError(t, ParseJSON(`Here you go: {"explanation":"ok","installation_steps":["a","b"]}`, &out))
	assert.Equal(t, "ok", out.Explanation)
	assert.Equal(t, []string{"a", "b"}, out.Steps)

	assert.Error(t, ParseJSON(`{"explanation": 3}`, &out))
}

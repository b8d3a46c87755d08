package guardrails

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partdesk-core-poc-v1/server/internal/agent/model"
)

func TestCheckScope(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		resolved   model.Resolved
		wantReason string
	}{
		{name: "supported appliance", query: "my oven and fridge", resolved: model.Resolved{Appliance: "Fridge"}},
		{name: "unsupported appliance", query: "it won't heat", resolved: model.Resolved{Appliance: "oven"}, wantReason: BlockUnsupportedAppliance},
		{name: "part id implies scope", query: "does PS11752778 fit my oven", resolved: model.Resolved{PartID: "PS11752778"}},
		{name: "model id implies scope", query: "microwave WDT780SAEM1", resolved: model.Resolved{ModelID: "WDT780SAEM1"}},
		{name: "keyword", query: "My oven won't heat up", wantReason: BlockOutOfScopeKeyword},
		{name: "multi-word keyword", query: "my Washing Machine is loud", wantReason: BlockOutOfScopeKeyword},
		{name: "keyword needs whole word", query: "the ice maker is backwards and noisy"},
		{name: "symptom without appliance", query: "leaking from the bottom", resolved: model.Resolved{Symptom: "leaking"}},
		{name: "default accept", query: "hello there"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := CheckScope(tc.query, tc.resolved)
			if tc.wantReason == "" {
				assert.Nil(t, b)
				return
			}
			require.NotNil(t, b)
			assert.Equal(t, tc.wantReason, b.Reason)
			assert.Contains(t, b.Message, "refrigerator and dishwasher")
		})
	}
}

func TestCheckScopeMessages(t *testing.T) {
	b := CheckScope("", model.Resolved{Appliance: "oven"})
	require.NotNil(t, b)
	assert.Equal(t, "I can only help with refrigerator and dishwasher parts. For oven issues, please contact a specialist.", b.Message)

	b = CheckScope("my stove is broken", model.Resolved{})
	require.NotNil(t, b)
	assert.Equal(t, "I specialize in refrigerator and dishwasher parts only. For stove repairs, please consult a qualified appliance technician or the manufacturer.", b.Message)
}

func TestDrifted(t *testing.T) {
	assert.True(t, Drifted(model.Session{Appliance: "refrigerator"}, model.Resolved{Appliance: "Dishwasher"}))
	assert.False(t, Drifted(model.Session{Appliance: "Refrigerator"}, model.Resolved{Appliance: "refrigerator"}))
	assert.False(t, Drifted(model.Session{}, model.Resolved{Appliance: "dishwasher"}))
	assert.False(t, Drifted(model.Session{Appliance: "dishwasher"}, model.Resolved{}))
	assert.False(t, Drifted(model.Session{Appliance: "fridge"}, model.Resolved{Appliance: "refrigerator"}))
	assert.True(t, Drifted(model.Session{Appliance: "fridge"}, model.Resolved{Appliance: "dishwasher"}))
}

func TestDriftResetDropsPriorSymptom(t *testing.T) {
	session := model.Session{Appliance: "refrigerator", LastSymptom: "x"}
	r := model.Resolved{Intent: model.IntentGeneralQuestion, Appliance: "dishwasher"}
	require.True(t, Drifted(session, r))

	merged := session.Reset().Merge(r)
	assert.Equal(t, model.Session{Appliance: "dishwasher"}, merged)
}

func TestPrefilter(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"", BlockLowSignal},
		{"   ", BlockLowSignal},
		{"ok", BlockLowSignal},
		{"?!?!", BlockLowSignal},
		{"1 2 3 4", BlockLowSignal},
		{"PS11752778", ""},
		{"WDT780SAEM1", ""},
		{"What is the capital of France?", BlockNonDomain},
		{"what's the weather today", BlockNonDomain},
		{"what time does my dishwasher cycle end", ""},
		{"weather seal PS11752778", ""},
		{"Ice maker not working", ""},
		{"The weatherstrip seal on the door is torn", ""},
		{"is the gasket weatherproof", ""},
		{"冰箱不制冰了", ""},
		{"冰", BlockLowSignal},
	}
	for _, tc := range tests {
		t.Run(tc.message, func(t *testing.T) {
			b := Prefilter(tc.message)
			if tc.want == "" {
				assert.Nil(t, b)
				return
			}
			require.NotNil(t, b)
			assert.Equal(t, tc.want, b.Reason)
			assert.Contains(t, b.Message, "refrigerator and dishwasher")
		})
	}
}

package graph

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partdesk-core-poc-v1/server/internal/agent/composer"
	"github.com/partdesk-core-poc-v1/server/internal/agent/graph/nodes"
	"github.com/partdesk-core-poc-v1/server/internal/agent/model"
	"github.com/partdesk-core-poc-v1/server/internal/agent/planner"
	"github.com/partdesk-core-poc-v1/server/internal/agent/reference"
	"github.com/partdesk-core-poc-v1/server/internal/agent/resolver"
	"github.com/partdesk-core-poc-v1/server/internal/agent/router"
	"github.com/partdesk-core-poc-v1/server/internal/agent/scoring"
	"github.com/partdesk-core-poc-v1/server/internal/agent/search"
)

// scriptedClassifier replies by the first key found in the user message part
// of the planning input.
type scriptedClassifier struct {
	replies map[string]string
	err     error
	calls   atomic.Int32
}

func (s *scriptedClassifier) Classify(_ context.Context, input string) (string, error) {
	s.calls.Add(1)
	if s.err != nil {
		return "", s.err
	}
	msg := input[strings.LastIndex(input, "User message:\n"):]
	for key, reply := range s.replies {
		if strings.Contains(msg, key) {
			return reply, nil
		}
	}
	return `{"intent":"general_question","confidence":0.2}`, nil
}

type panickySearch struct{}

func (panickySearch) Search(context.Context, string, int) ([]model.ScoredPart, error) {
	panic("index corrupted")
}

func rating(v float64) *float64 { return &v }

func testStore() *reference.Store {
	return reference.New(
		[]model.Part{
			{
				ID: "PS11752778", Title: "Refrigerator Door Shelf Bin", ProductTypes: "refrigerator",
				Symptoms: []string{"Door won't open or close"}, Rating: rating(4.8),
			},
			{
				ID: "PS2000001", Title: "Ice Maker Assembly", ProductTypes: "refrigerator",
				Symptoms: []string{"Ice maker not making ice"}, Rating: rating(4.2),
			},
			{
				ID: "PS3406971", Title: "Dishwasher Drain Pump", ProductTypes: "dishwasher",
				Symptoms: []string{"Not draining", "Leaking"}, Rating: rating(4.0),
			},
		},
		map[string][]string{
			"WRX735SDHZ08": {"PS11752778", "PS2000001"},
			"WDT780SAEM1":  {"PS3406971"},
		},
	)
}

func newRunner(t *testing.T, cls planner.Classifier, searcher composer.Searcher) Runner {
	t.Helper()
	store := testStore()
	if searcher == nil {
		searcher = search.NewIndex(store.Parts())
	}
	cfg := model.DefaultRoutingConfig()
	r, err := BuildRunner(context.Background(), &GraphConfig{
		Analyzer: &nodes.Analyzer{
			Planner:  planner.New(cls, planner.NewCache(100), 0),
			FollowUp: planner.NewFollowUp(cfg.FollowUpPhrases, cfg.FollowUpConfidence),
			Lookup:   store,
			Resolver: resolver.New(store),
			Scorer:   scoring.New(cfg.UnvalidatedModelScore),
			Router:   router.New(cfg),
		},
		Composer: composer.New(store, searcher, nil, composer.Config{}),
	})
	require.NoError(t, err)
	return r
}

func TestInstallQuestionRoutesToPartLookup(t *testing.T) {
	cls := &scriptedClassifier{replies: map[string]string{
		"PS11752778": `{"intent":"install_help","part_id":"PS11752778","confidence":0.9}`,
	}}
	res := newRunner(t, cls, nil).HandleTurn(context.Background(), model.TurnInput{
		ConversationID: "c1",
		Query:          "How do I install part PS11752778?",
	})

	require.Equal(t, model.KindPartLookup, res.Response.Kind())
	assert.Equal(t, model.RoutePartLookup, res.Decision.Route)
	assert.False(t, res.Response.Header().RequiresClarification)
	assert.Equal(t, "PS11752778", res.Session.PartID)
}

func TestOutOfScopeApplianceIsBlocked(t *testing.T) {
	prior := model.Session{Appliance: "refrigerator", ModelID: "WRX735SDHZ08", ModelIDValid: true}
	res := newRunner(t, &scriptedClassifier{err: errors.New("down")}, nil).HandleTurn(context.Background(), model.TurnInput{
		ConversationID: "c1",
		Query:          "My oven won't heat up",
		Session:        prior,
	})

	resp, ok := res.Response.(model.ClarificationResponse)
	require.True(t, ok)
	assert.Contains(t, resp.Message, "refrigerator and dishwasher")
	assert.Zero(t, resp.Confidence)
	assert.Equal(t, model.RouteBlocked, res.Decision.Route)
	assert.Equal(t, prior, res.Session, "blocked turns leave the session alone")
}

func TestSymptomWithoutModelAsksForModel(t *testing.T) {
	cls := &scriptedClassifier{replies: map[string]string{
		"Ice maker": `{"intent":"symptom_troubleshoot","symptom":"ice maker not working","appliance":"refrigerator","confidence":0.9}`,
	}}
	res := newRunner(t, cls, nil).HandleTurn(context.Background(), model.TurnInput{ConversationID: "c1", Query: "Ice maker not working"})

	require.Equal(t, model.KindModelRequired, res.Response.Kind())
	assert.Equal(t, model.RouteModelRequired, res.Decision.Route)
	assert.InDelta(t, 0.55, res.Response.Header().Confidence, 1e-9)
	assert.Equal(t, "ice maker not working", res.Session.LastSymptom)
}

func TestUnknownModelDegradesWithFloor(t *testing.T) {
	cls := &scriptedClassifier{replies: map[string]string{
		"UNKNOWN123": `{"intent":"symptom_troubleshoot","symptom":"ice maker broken","model_id":"UNKNOWN123","appliance":"refrigerator","confidence":0.5}`,
	}}
	res := newRunner(t, cls, nil).HandleTurn(context.Background(), model.TurnInput{
		ConversationID: "c1",
		Query:          "My ice maker is broken, model UNKNOWN123",
	})

	require.Equal(t, model.RouteSymptomUnvalidated, res.Decision.Route)
	resp, ok := res.Response.(model.SymptomSolutionResponse)
	require.True(t, ok)
	assert.False(t, resp.ModelVerified)
	assert.GreaterOrEqual(t, resp.Confidence, 0.60)
	assert.NotEmpty(t, resp.RecommendedParts)
	assert.Equal(t, "UNKNOWN123", res.Session.ModelID)
	assert.False(t, res.Session.ModelIDValid)
}

func TestClassifierDownStillAnswers(t *testing.T) {
	cls := &scriptedClassifier{err: errors.New("503")}
	runner := newRunner(t, cls, nil)

	for _, q := range []string{"Ice maker not working", "How do I install part PS11752778?", "does it fit WDT780SAEM1"} {
		res := runner.HandleTurn(context.Background(), model.TurnInput{ConversationID: "c1", Query: q})
		require.NotNil(t, res.Response, q)
		assert.LessOrEqual(t, res.Response.Header().Confidence, 0.55, q)
	}
	assert.Positive(t, cls.calls.Load())
}

func TestTopicDriftResetsSession(t *testing.T) {
	cls := &scriptedClassifier{replies: map[string]string{
		"dishwasher": `{"intent":"symptom_troubleshoot","symptom":"not draining","appliance":"dishwasher","confidence":0.9}`,
	}}
	res := newRunner(t, cls, nil).HandleTurn(context.Background(), model.TurnInput{
		ConversationID: "c1",
		Query:          "now my dishwasher is not draining",
		Session:        model.Session{Appliance: "refrigerator", LastSymptom: "x", PartID: "PS11752778"},
	})

	assert.True(t, res.Drifted)
	assert.Equal(t, "dishwasher", res.Session.Appliance)
	assert.Equal(t, "not draining", res.Session.LastSymptom)
	assert.Empty(t, res.Session.PartID)
}

func TestPrefilterSkipsPlanning(t *testing.T) {
	cls := &scriptedClassifier{}
	res := newRunner(t, cls, nil).HandleTurn(context.Background(), model.TurnInput{ConversationID: "c1", Query: " ?? "})

	resp, ok := res.Response.(model.ClarificationResponse)
	require.True(t, ok)
	assert.Equal(t, model.ReasonLowSignal, resp.Reason)
	assert.Zero(t, cls.calls.Load())
}

func TestFollowUpSkipsClassifier(t *testing.T) {
	cls := &scriptedClassifier{}
	session := model.Session{ModelID: "WDT780SAEM1", ModelIDValid: true, LastSymptom: "not draining", Appliance: "dishwasher"}
	res := newRunner(t, cls, nil).HandleTurn(context.Background(), model.TurnInput{
		ConversationID: "c1",
		Query:          "walk me through the next steps",
		Session:        session,
	})

	assert.Zero(t, cls.calls.Load())
	assert.Equal(t, model.PlanFromFollowUp, res.Plan.Source)
	assert.Equal(t, model.RouteSymptom, res.Decision.Route)
	resp, ok := res.Response.(model.SymptomSolutionResponse)
	require.True(t, ok)
	require.NotEmpty(t, resp.RecommendedParts)
	assert.Equal(t, "PS3406971", resp.RecommendedParts[0].ID)
}

func TestPanicBecomesErrorResponse(t *testing.T) {
	session := model.Session{ModelID: "WDT780SAEM1", ModelIDValid: true, LastSymptom: "not draining", Appliance: "dishwasher"}
	res := newRunner(t, &scriptedClassifier{}, panickySearch{}).HandleTurn(context.Background(), model.TurnInput{
		ConversationID: "c1",
		Query:          "walk me through the next steps",
		Session:        session,
	})

	resp, ok := res.Response.(model.ClarificationResponse)
	require.True(t, ok)
	assert.Equal(t, model.ReasonError, resp.Reason)
	assert.Zero(t, resp.Confidence)
	assert.Equal(t, model.RouteError, res.Decision.Route)
	assert.Equal(t, session, res.Session)
}

func TestBuildGraphValidatesConfig(t *testing.T) {
	_, err := BuildGraph(context.Background(), nil)
	assert.Error(t, err)
	_, err = BuildGraph(context.Background(), &GraphConfig{Analyzer: &nodes.Analyzer{}})
	assert.Error(t, err)
}

package planner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partdesk-core-poc-v1/server/internal/agent/model"
	errx "github.com/partdesk-core-poc-v1/server/internal/core/error"
)

type fakeClassifier struct {
	reply string
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (f *fakeClassifier) Classify(ctx context.Context, _ string) (string, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

const symptomReply = `{"intent":"symptom_troubleshoot","confidence":0.85,"symptom":"ice maker not working","appliance":"refrigerator","brand":"Whirlpool","query":"whirlpool refrigerator ice maker not working","part_id":null,"model_id":"None"}`

func TestPlanCachesIdenticalInput(t *testing.T) {
	fc := &fakeClassifier{reply: symptomReply}
	p := New(fc, NewCache(10), time.Second)
	in := Input{Text: "User message:\nIce maker not working", Message: "Ice maker not working"}

	first := p.Plan(context.Background(), in)
	second := p.Plan(context.Background(), Input{Text: "  user message:\nICE MAKER NOT WORKING ", Message: "x"})

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), fc.calls.Load())
	assert.Equal(t, model.IntentSymptomTroubleshoot, first.Intent)
	assert.Empty(t, first.ModelID)

	stats := p.CacheStats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRate, 1e-9)
}

func TestPlanFallbackOnClassifierError(t *testing.T) {
	fc := &fakeClassifier{err: errors.New("503")}
	p := New(fc, NewCache(10), time.Second)

	plan := p.Plan(context.Background(), Input{Text: "ctx", Message: "How do I install PS11752778 on WDT780SAEM1?"})
	assert.Equal(t, model.Plan{
		Intent:     model.IntentPartLookup,
		PartID:     "PS11752778",
		ModelID:    "WDT780SAEM1",
		Confidence: 0.55,
		Query:      "how do i install ps11752778 on wdt780saem1?",
		Source:     model.PlanFromFallback,
	}, plan)

	p.Plan(context.Background(), Input{Text: "ctx", Message: "hello"})
	assert.Equal(t, int32(2), fc.calls.Load(), "fallback plans are not cached")
}

func TestPlanFallbackOnMalformedReply(t *testing.T) {
	p := New(&fakeClassifier{reply: "I think this is about a fridge"}, nil, 0)

	plan := p.Plan(context.Background(), Input{Text: "t", Message: "my fridge is broken"})
	assert.Equal(t, model.IntentGeneralQuestion, plan.Intent)
	assert.Equal(t, 0.3, plan.Confidence)
	assert.Equal(t, model.PlanFromFallback, plan.Source)
}

func TestPlanTimeout(t *testing.T) {
	fc := &fakeClassifier{reply: symptomReply, delay: time.Second}
	p := New(fc, nil, 20*time.Millisecond)

	start := time.Now()
	plan := p.Plan(context.Background(), Input{Text: "t", Message: "m"})
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, model.PlanFromFallback, plan.Source)
}

func TestNilClassifierFallsBack(t *testing.T) {
	plan := New(nil, nil, 0).Plan(context.Background(), Input{Text: "t", Message: "PS11752778"})
	assert.Equal(t, model.IntentPartLookup, plan.Intent)
}

func TestClassifyWrapsUnavailable(t *testing.T) {
	p := New(&fakeClassifier{err: errors.New("boom")}, nil, 0)
	_, err := p.classify(context.Background(), "t")
	assert.ErrorIs(t, err, errx.ErrClassifierUnavailable)
}

func TestCacheStopsInsertingAtCapacity(t *testing.T) {
	c := NewCache(2)
	require.True(t, c.Put("a", model.Plan{Query: "a"}))
	require.True(t, c.Put("b", model.Plan{Query: "b"}))
	assert.False(t, c.Put("c", model.Plan{Query: "c"}))
	assert.True(t, c.Put("a", model.Plan{Query: "a2"}), "existing key counts as stored")

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a", got.Query, "first insert wins")
	_, ok = c.Get("c")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Stats().Size)
}

func TestCacheConcurrentPutNeverExceedsCapacity(t *testing.T) {
	c := NewCache(50)
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Put(fmt.Sprintf("input-%d", i), model.Plan{})
			c.Get(fmt.Sprintf("input-%d", i))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, c.Stats().Size)
}

func TestFollowUpPlan(t *testing.T) {
	f := NewFollowUp([]string{"Step By Step", " walk me through ", ""}, 0.8)
	session := model.Session{LastSymptom: "ice maker not working", ModelID: "WRX735SDHZ08", Appliance: "refrigerator", Brand: "Whirlpool"}

	plan, ok := f.Plan(session, "Can you walk me through the checks?")
	require.True(t, ok)
	assert.Equal(t, model.Plan{
		Intent:     model.IntentSymptomTroubleshoot,
		ModelID:    "WRX735SDHZ08",
		Symptom:    "ice maker not working",
		Appliance:  "refrigerator",
		Brand:      "Whirlpool",
		Confidence: 0.8,
		Query:      "ice maker not working",
		Source:     model.PlanFromFollowUp,
	}, plan)

	_, ok = f.Plan(model.Session{}, "step by step please")
	assert.False(t, ok, "no prior symptom")
	_, ok = f.Plan(session, "thanks")
	assert.False(t, ok)

	var nilFollowUp *FollowUp
	_, ok = nilFollowUp.Plan(session, "step by step")
	assert.False(t, ok)
}

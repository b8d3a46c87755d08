// Package planner turns a message plus conversation context into a Plan. It
// wraps an unreliable classifier with a cache, strict parsing and a
// deterministic fallback, so Plan never fails.
package planner

import (
	"context"
	"errors"
	"time"

	"github.com/partdesk-core-poc-v1/server/internal/agent/graph/parsers"
	"github.com/partdesk-core-poc-v1/server/internal/agent/model"
	errx "github.com/partdesk-core-poc-v1/server/internal/core/error"
	"github.com/partdesk-core-poc-v1/server/internal/metrics"
	logx "github.com/partdesk-core-poc-v1/server/pkg/logger"
)

// Classifier sends the planning input to a language model and returns its raw
// reply. Failures should carry errx.ErrClassifierUnavailable.
type Classifier interface {
	Classify(ctx context.Context, input string) (string, error)
}

// Input is what the planner reads: the full planning block (summary, session,
// message) and the bare user message.
type Input struct {
	Text    string
	Message string
}

type Planner struct {
	classifier Classifier
	cache      *Cache
	timeout    time.Duration
}

// New builds a planner. A nil classifier makes every miss use the fallback plan.
func New(classifier Classifier, cache *Cache, timeout time.Duration) *Planner {
	if cache == nil {
		cache = NewCache(0)
	}
	return &Planner{classifier: classifier, cache: cache, timeout: timeout}
}

// Cached returns the plan cached for in without contacting the classifier.
func (p *Planner) Cached(in Input) (model.Plan, bool) {
	plan, ok := p.cache.Get(in.Text)
	if ok {
		metrics.PlannerCache.WithLabelValues("hit").Inc()
	} else {
		metrics.PlannerCache.WithLabelValues("miss").Inc()
	}
	return plan, ok
}

// Plan returns the cached plan, or classifies and caches the result.
func (p *Planner) Plan(ctx context.Context, in Input) model.Plan {
	if plan, ok := p.Cached(in); ok {
		return plan
	}
	return p.Classify(ctx, in)
}

// Classify always calls the classifier (subject to timeout). Successful plans
// are cached; any failure degrades to FallbackPlan, which is not cached.
func (p *Planner) Classify(ctx context.Context, in Input) model.Plan {
	plan, err := p.classify(ctx, in.Text)
	switch {
	case err == nil:
		p.cache.Put(in.Text, plan)
		logx.Debug().
			Str("intent", string(plan.Intent)).
			Float64("confidence", plan.Confidence).
			Msg("planner classified message")
		return plan
	case errors.Is(err, errx.ErrClassifierMalformed):
		metrics.PlannerFallbacks.WithLabelValues("malformed").Inc()
		logx.Warn().Err(err).Msg("classifier reply malformed; using fallback plan")
	default:
		metrics.PlannerFallbacks.WithLabelValues("unavailable").Inc()
		logx.Warn().Err(err).Msg("classifier unavailable; using fallback plan")
	}
	return FallbackPlan(in.Message)
}

func (p *Planner) classify(ctx context.Context, text string) (model.Plan, error) {
	if p.classifier == nil {
		return model.Plan{}, errx.ErrClassifierUnavailable
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	reply, err := p.classifier.Classify(ctx, text)
	if err != nil {
		if !errors.Is(err, errx.ErrClassifierUnavailable) {
			err = errx.Wrap(errx.ErrClassifierUnavailable, err)
		}
		return model.Plan{}, err
	}
	return parsers.ParsePlan(reply)
}

// CacheStats exposes the cache counters.
func (p *Planner) CacheStats() CacheStats {
	return p.cache.Stats()
}

package nodes

import (
	"context"
	"time"

	"github.com/cloudwego/eino/compose"
	"golang.org/x/sync/errgroup"

	"github.com/partdesk-core-poc-v1/server/internal/agent/composer"
	"github.com/partdesk-core-poc-v1/server/internal/agent/extract"
	"github.com/partdesk-core-poc-v1/server/internal/agent/graph/conversations"
	"github.com/partdesk-core-poc-v1/server/internal/agent/guardrails"
	"github.com/partdesk-core-poc-v1/server/internal/agent/model"
	"github.com/partdesk-core-poc-v1/server/internal/agent/planner"
	"github.com/partdesk-core-poc-v1/server/internal/agent/resolver"
	"github.com/partdesk-core-poc-v1/server/internal/agent/router"
	"github.com/partdesk-core-poc-v1/server/internal/agent/scoring"
	"github.com/partdesk-core-poc-v1/server/internal/metrics"
	logx "github.com/partdesk-core-poc-v1/server/pkg/logger"
)

const (
	NodePrefilter     = "Prefilter"
	NodeAnalyze       = "Analyze"
	NodePartLookup    = "PartLookup"
	NodeCompatibility = "Compatibility"
	NodeSymptom       = "Symptom"
	NodeClarify       = "Clarify"
)

// NewTurnPreHandler seeds the graph-local state on the first node.
func NewTurnPreHandler() func(context.Context, *model.Turn, *model.TurnState) (*model.Turn, error) {
	return func(ctx context.Context, in *model.Turn, s *model.TurnState) (*model.Turn, error) {
		if s.ConversationID == "" {
			s.ConversationID = in.ConversationID
		}
		if s.StartedAt.IsZero() {
			s.StartedAt = time.Now()
		}
		s.Stages = append(s.Stages, NodePrefilter)
		return in, nil
	}
}

// NewStagePreHandler records that the named node ran.
func NewStagePreHandler(stage string) func(context.Context, *model.Turn, *model.TurnState) (*model.Turn, error) {
	return func(ctx context.Context, in *model.Turn, s *model.TurnState) (*model.Turn, error) {
		s.Stages = append(s.Stages, stage)
		return in, nil
	}
}

// NewResponsePostHandler logs the finished turn with the stages it went through.
func NewResponsePostHandler() func(context.Context, model.Response, *model.TurnState) (model.Response, error) {
	return func(ctx context.Context, out model.Response, s *model.TurnState) (model.Response, error) {
		ev := logx.Debug().
			Str("conversation_id", s.ConversationID).
			Strs("stages", s.Stages).
			Dur("elapsed", time.Since(s.StartedAt))
		if out != nil {
			ev = ev.Str("kind", string(out.Kind())).Float64("confidence", out.Header().Confidence)
		}
		ev.Msg("turn composed")
		return out, nil
	}
}

// ================ Prefilter ================

// NewPrefilterNode blocks empty, low-signal and clearly off-domain messages
// before any planning.
func NewPrefilterNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, t *model.Turn) (*model.Turn, error) {
		if b := guardrails.Prefilter(t.Query); b != nil {
			t.Block = b
			t.Decision = model.Decision{Route: model.RouteBlocked, Reason: b.Reason}
			metrics.GuardrailBlocks.WithLabelValues(b.Reason).Inc()
			logx.Debug().Str("conversation_id", t.ConversationID).Str("reason", b.Reason).Msg("message prefiltered")
		}
		return t, nil
	})
}

// NewPrefilterCondition sends blocked turns straight to the clarification node.
func NewPrefilterCondition() func(context.Context, *model.Turn) (string, error) {
	return func(ctx context.Context, t *model.Turn) (string, error) {
		if t.Block != nil {
			return NodeClarify, nil
		}
		return NodeAnalyze, nil
	}
}

// ================ Analyze ================

// Analyzer runs the resolution pipeline: plan, resolve, scope check, drift
// reset, score, merge and route.
type Analyzer struct {
	Planner  *planner.Planner
	FollowUp *planner.FollowUp
	Lookup   resolver.Lookup
	Resolver *resolver.Resolver
	Scorer   *scoring.Scorer
	Router   *router.Router
}

// NewAnalyzeNode wraps Analyzer.Analyze as a graph node.
func NewAnalyzeNode(a *Analyzer) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, t *model.Turn) (*model.Turn, error) {
		a.Analyze(ctx, t)
		return t, nil
	})
}

// Analyze fills in the turn from its query and stored session. Resolution sees
// the session as stored; scoring sees it after any drift reset; routing sees it
// after the merge. A scope block leaves the session untouched.
func (a *Analyzer) Analyze(ctx context.Context, t *model.Turn) {
	t.Candidates = extract.Extract(t.Query)

	plan, pre := a.plan(ctx, t)
	t.Plan = plan
	t.Resolved = a.Resolver.Resolve(plan, t.Candidates, t.Session, t.Query, pre)

	if b := guardrails.CheckScope(t.Query, t.Resolved); b != nil {
		t.Block = b
		t.Decision = model.Decision{Route: model.RouteBlocked, Reason: b.Reason}
		metrics.GuardrailBlocks.WithLabelValues(b.Reason).Inc()
		logx.Warn().
			Str("conversation_id", t.ConversationID).
			Str("reason", b.Reason).
			Str("appliance", t.Resolved.Appliance).
			Msg("turn out of scope")
		return
	}

	session := t.Session
	if guardrails.Drifted(session, t.Resolved) {
		metrics.TopicDrifts.Inc()
		logx.Warn().
			Str("conversation_id", t.ConversationID).
			Str("from", session.Appliance).
			Str("to", t.Resolved.Appliance).
			Msg("topic drift; session reset")
		session = session.Reset()
		t.Drifted = true
	}

	t.Confidence = a.Scorer.Score(t.Resolved, plan, t.Candidates, session)
	t.Session = session.Merge(t.Resolved)
	t.Decision = a.Router.Route(t.Resolved, t.Confidence, t.Session)

	logx.Debug().
		Str("conversation_id", t.ConversationID).
		Str("intent", string(t.Resolved.Intent)).
		Str("part_id", t.Resolved.PartID).
		Str("model_id", t.Resolved.ModelID).
		Bool("model_valid", t.Resolved.ModelIDValid).
		Float64("confidence", t.Confidence).
		Str("route", string(t.Decision.Route)).
		Str("reason", t.Decision.Reason).
		Msg("turn routed")
}

// plan picks the cheapest way to a plan. A follow-up or a cache hit needs no
// classifier call; otherwise the classifier and both reference prefetches run
// concurrently and join before resolution.
func (a *Analyzer) plan(ctx context.Context, t *model.Turn) (model.Plan, *resolver.Prefetch) {
	c := t.Candidates

	if plan, ok := a.FollowUp.Plan(t.Session, t.Query); ok {
		metrics.PlannerFollowUps.Inc()
		return plan, nil
	}

	in := planner.Input{
		Text:    conversations.PlanningInput(t.Summary, t.Session, t.Query),
		Message: t.Query,
	}
	if plan, ok := a.Planner.Cached(in); ok {
		return plan, nil
	}

	var (
		plan      model.Plan
		part, mdl resolver.Prefetch
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		part = resolver.PrefetchPart(a.Lookup, c.PartID)
		return nil
	})
	g.Go(func() error {
		mdl = resolver.PrefetchModel(a.Lookup, c.ModelID)
		return nil
	})
	g.Go(func() error {
		plan = a.Planner.Classify(gctx, in)
		return nil
	})
	_ = g.Wait()

	return plan, resolver.Combine(part, mdl)
}

// NewRouteCondition maps the routed decision (or a scope block) onto a handler node.
func NewRouteCondition() func(context.Context, *model.Turn) (string, error) {
	return func(ctx context.Context, t *model.Turn) (string, error) {
		if t.Block != nil {
			return NodeClarify, nil
		}
		switch t.Decision.Route {
		case model.RoutePartLookup:
			return NodePartLookup, nil
		case model.RouteCompatibility, model.RouteCompatibilityUnvalidated:
			return NodeCompatibility, nil
		case model.RouteSymptom, model.RouteSymptomUnvalidated:
			return NodeSymptom, nil
		default:
			return NodeClarify, nil
		}
	}
}

// ================ Handlers ================

// NewPartLookupNode answers a routed part lookup.
func NewPartLookupNode(c *composer.Composer) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, t *model.Turn) (model.Response, error) {
		return c.PartLookup(ctx, t.Resolved.PartID, t.Decision.Confidence, t.Query), nil
	})
}

// NewCompatibilityNode answers validated and unvalidated compatibility routes.
func NewCompatibilityNode(c *composer.Composer) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, t *model.Turn) (model.Response, error) {
		r, d := t.Resolved, t.Decision
		if d.Route == model.RouteCompatibility {
			return c.Compatibility(ctx, r.PartID, r.ModelID, d.Confidence, t.Query), nil
		}
		return c.CompatibilityUnvalidated(ctx, r.PartID, r.ModelID, d.Confidence, t.Query), nil
	})
}

// NewSymptomNode answers validated and unvalidated troubleshooting routes.
func NewSymptomNode(c *composer.Composer) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, t *model.Turn) (model.Response, error) {
		d := t.Decision
		if d.Route == model.RouteSymptom {
			return c.Symptom(ctx, d.Symptom, t.Resolved.ModelID, t.Session, d.Confidence, t.Query), nil
		}
		return c.SymptomUnvalidated(ctx, d.Symptom, t.Resolved.ModelID, t.Session, d.Confidence, t.Query), nil
	})
}

// NewClarifyNode answers blocked turns and the model-required, issue-required
// and clarification routes.
func NewClarifyNode(c *composer.Composer) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, t *model.Turn) (model.Response, error) {
		return c.Compose(ctx, t), nil
	})
}

package graph

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/cloudwego/eino/compose"

	"github.com/partdesk-core-poc-v1/server/internal/agent/composer"
	"github.com/partdesk-core-poc-v1/server/internal/agent/graph/nodes"
	"github.com/partdesk-core-poc-v1/server/internal/agent/graph/observers"
	"github.com/partdesk-core-poc-v1/server/internal/agent/model"
	"github.com/partdesk-core-poc-v1/server/internal/metrics"
	logx "github.com/partdesk-core-poc-v1/server/pkg/logger"
)

// Runner handles one turn end to end. It always returns a response.
type Runner interface {
	HandleTurn(ctx context.Context, in model.TurnInput) model.TurnResult
}

// GraphConfig holds all configuration needed to build the graph
type GraphConfig struct {
	Analyzer *nodes.Analyzer
	Composer *composer.Composer
}

// GraphBuilder handles the construction of the turn graph
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[*model.Turn, model.Response]
}

type graphRunner struct {
	runnable compose.Runnable[*model.Turn, model.Response]
}

// NewRunner wraps a compiled turn graph.
func NewRunner(runnable compose.Runnable[*model.Turn, model.Response]) Runner {
	return &graphRunner{runnable: runnable}
}

// BuildRunner builds and compiles the turn graph and returns a Runner over it.
func BuildRunner(ctx context.Context, cfg *GraphConfig) (Runner, error) {
	runnable, err := BuildGraph(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logx.Debug().Msg("Turn graph built successfully")
	return NewRunner(runnable), nil
}

// HandleTurn invokes the graph. A graph error or a panic anywhere in the turn
// becomes the generic clarification with confidence 0, and the input session
// is returned unchanged.
func (r *graphRunner) HandleTurn(ctx context.Context, in model.TurnInput) (res model.TurnResult) {
	start := time.Now()
	turn := model.NewTurn(in)

	defer func() {
		if rec := recover(); rec != nil {
			logx.Error().
				Str("conversation_id", in.ConversationID).
				Str("query", in.Query).
				Interface("panic", rec).
				Str("stack", string(debug.Stack())).
				Msg("turn panicked")
			res = failed(in)
		}
		observe(res, time.Since(start))
	}()

	out, err := r.runnable.Invoke(ctx, turn, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil || out == nil {
		if err == nil {
			err = fmt.Errorf("graph returned no response")
		}
		logx.Error().
			Err(err).
			Str("conversation_id", in.ConversationID).
			Str("query", in.Query).
			Msg("turn failed")
		return failed(in)
	}

	logx.Info().
		Str("conversation_id", in.ConversationID).
		Str("route", string(turn.Decision.Route)).
		Str("kind", string(out.Kind())).
		Float64("confidence", out.Header().Confidence).
		Msg("turn handled")

	return model.TurnResult{
		Response: out,
		Session:  turn.Session,
		Decision: turn.Decision,
		Plan:     turn.Plan,
		Drifted:  turn.Drifted,
	}
}

func failed(in model.TurnInput) model.TurnResult {
	return model.TurnResult{
		Response: composer.ErrorResponse(),
		Session:  in.Session,
		Decision: model.Decision{Route: model.RouteError},
	}
}

func observe(res model.TurnResult, elapsed time.Duration) {
	if res.Response == nil {
		return
	}
	if res.Decision.Route == model.RouteError {
		metrics.TurnErrors.Inc()
	}
	metrics.TurnsTotal.WithLabelValues(string(res.Response.Kind()), string(res.Decision.Route)).Inc()
	metrics.TurnConfidence.Observe(res.Response.Header().Confidence)
	metrics.TurnLatency.Observe(elapsed.Seconds())
}

// BuildGraph constructs and returns the compiled turn graph
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[*model.Turn, model.Response], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.Analyzer == nil || config.Analyzer.Planner == nil || config.Analyzer.Resolver == nil ||
		config.Analyzer.Scorer == nil || config.Analyzer.Router == nil || config.Analyzer.Lookup == nil {
		return nil, fmt.Errorf("analyzer is not properly initialized")
	}
	if config.Composer == nil {
		return nil, fmt.Errorf("composer is nil")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[*model.Turn, model.Response](
			compose.WithGenLocalState(func(ctx context.Context) *model.TurnState {
				return &model.TurnState{}
			}),
		),
	}

	if err := builder.addNodes(); err != nil {
		return nil, err
	}
	if err := builder.addEdges(); err != nil {
		return nil, err
	}
	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() error {
	c := b.config.Composer
	post := compose.WithStatePostHandler(nodes.NewResponsePostHandler())

	steps := []struct {
		key    string
		lambda *compose.Lambda
		opts   []compose.GraphAddNodeOpt
	}{
		{nodes.NodePrefilter, nodes.NewPrefilterNode(), []compose.GraphAddNodeOpt{
			compose.WithStatePreHandler(nodes.NewTurnPreHandler()),
		}},
		{nodes.NodeAnalyze, nodes.NewAnalyzeNode(b.config.Analyzer), []compose.GraphAddNodeOpt{
			compose.WithStatePreHandler(nodes.NewStagePreHandler(nodes.NodeAnalyze)),
		}},
		{nodes.NodePartLookup, nodes.NewPartLookupNode(c), []compose.GraphAddNodeOpt{
			compose.WithStatePreHandler(nodes.NewStagePreHandler(nodes.NodePartLookup)), post,
		}},
		{nodes.NodeCompatibility, nodes.NewCompatibilityNode(c), []compose.GraphAddNodeOpt{
			compose.WithStatePreHandler(nodes.NewStagePreHandler(nodes.NodeCompatibility)), post,
		}},
		{nodes.NodeSymptom, nodes.NewSymptomNode(c), []compose.GraphAddNodeOpt{
			compose.WithStatePreHandler(nodes.NewStagePreHandler(nodes.NodeSymptom)), post,
		}},
		{nodes.NodeClarify, nodes.NewClarifyNode(c), []compose.GraphAddNodeOpt{
			compose.WithStatePreHandler(nodes.NewStagePreHandler(nodes.NodeClarify)), post,
		}},
	}

	for _, s := range steps {
		if err := b.graph.AddLambdaNode(s.key, s.lambda, s.opts...); err != nil {
			logx.Error().Err(err).Str("node", s.key).Msg("Error adding node")
			return fmt.Errorf("error adding node %s: %w", s.key, err)
		}
	}
	return nil
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, nodes.NodePrefilter},
		{nodes.NodePartLookup, compose.END},
		{nodes.NodeCompatibility, compose.END},
		{nodes.NodeSymptom, compose.END},
		{nodes.NodeClarify, compose.END},
	}

	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			return fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	prefilterBranch := compose.NewGraphBranch(
		nodes.NewPrefilterCondition(),
		map[string]bool{
			nodes.NodeAnalyze: true,
			nodes.NodeClarify: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodePrefilter, prefilterBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding prefilter branch")
		return fmt.Errorf("error adding prefilter branch: %w", err)
	}

	routeBranch := compose.NewGraphBranch(
		nodes.NewRouteCondition(),
		map[string]bool{
			nodes.NodePartLookup:    true,
			nodes.NodeCompatibility: true,
			nodes.NodeSymptom:       true,
			nodes.NodeClarify:       true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeAnalyze, routeBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding route branch")
		return fmt.Errorf("error adding route branch: %w", err)
	}

	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[*model.Turn, model.Response], error) {
	runnable, err := b.graph.Compile(ctx,
		compose.WithGraphName("turn"),
		compose.WithMaxRunSteps(10),
	)
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}

// Package composer builds the user-facing answer for a routed turn. Each
// handler blends reference data with generated text and always returns a
// response, degrading to deterministic text when a collaborator fails.
package composer

import (
	"context"
	"time"

	"github.com/partdesk-core-poc-v1/server/internal/agent/model"
)

// Catalog is the read-only reference data the handlers use.
type Catalog interface {
	LookupPart(id string) (model.Part, bool)
	CompatibleParts(modelID string) []string
	IsCompatible(modelID, partID string) bool
	PopularParts(appliance string, limit int) []model.ScoredPart
}

// Searcher ranks parts for a free-text query. Failures should carry
// errx.ErrSearchUnavailable; an empty result is not an error.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]model.ScoredPart, error)
}

// Generator turns a prompt into a reply expected to hold a JSON object.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config bounds the collaborator calls.
type Config struct {
	SearchTimeout    time.Duration
	GeneratorTimeout time.Duration
}

type Composer struct {
	catalog   Catalog
	search    Searcher
	generator Generator
	validator *Validator
	cfg       Config
}

// New builds a Composer. search and generator may be nil; handlers then use
// their fallbacks.
func New(catalog Catalog, search Searcher, generator Generator, cfg Config) *Composer {
	return &Composer{
		catalog:   catalog,
		search:    search,
		generator: generator,
		validator: NewValidator(catalog),
		cfg:       cfg,
	}
}

// Compose dispatches a routed turn to its handler. Blocked turns are answered
// from their guardrail verdict.
func (c *Composer) Compose(ctx context.Context, t *model.Turn) model.Response {
	if t.Block != nil {
		return Blocked(t.Block)
	}
	d := t.Decision
	r := t.Resolved
	switch d.Route {
	case model.RoutePartLookup:
		return c.PartLookup(ctx, r.PartID, d.Confidence, t.Query)
	case model.RouteCompatibility:
		return c.Compatibility(ctx, r.PartID, r.ModelID, d.Confidence, t.Query)
	case model.RouteCompatibilityUnvalidated:
		return c.CompatibilityUnvalidated(ctx, r.PartID, r.ModelID, d.Confidence, t.Query)
	case model.RouteSymptom:
		return c.Symptom(ctx, d.Symptom, r.ModelID, t.Session, d.Confidence, t.Query)
	case model.RouteSymptomUnvalidated:
		return c.SymptomUnvalidated(ctx, d.Symptom, r.ModelID, t.Session, d.Confidence, t.Query)
	case model.RouteModelRequired:
		return ModelRequired(r, d.Symptom, d.Confidence)
	case model.RouteIssueRequired:
		return IssueRequired(r.ModelID, d.Confidence)
	case model.RouteClarification:
		return Clarification(r, d.Confidence)
	default:
		return ErrorResponse()
	}
}

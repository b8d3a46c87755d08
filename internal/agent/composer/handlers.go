package composer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/partdesk-core-poc-v1/server/internal/agent/graph/prompts"
	"github.com/partdesk-core-poc-v1/server/internal/agent/model"
	errx "github.com/partdesk-core-poc-v1/server/internal/core/error"
	"github.com/partdesk-core-poc-v1/server/internal/metrics"
	logx "github.com/partdesk-core-poc-v1/server/pkg/logger"
)

const (
	relatedLimit        = 3
	recommendLimit      = 3
	alternativeLimit    = 3
	symptomSearchTopK   = 20
	unvalidatedTopK     = 10
	compatibilityTopK   = 8
	popularLimit        = 10
	clarifySymptomBelow = 0.70
	capConfidence       = 0.99
)

// PartLookup answers installation and information requests for a known part.
func (c *Composer) PartLookup(ctx context.Context, partID string, confidence float64, query string) model.Response {
	part, ok := c.catalog.LookupPart(partID)
	if !ok {
		return notFound(fmt.Sprintf("Part %s not found in database.", partID), 0.3)
	}

	g, err := c.partText(ctx, part, query)
	if err != nil {
		generatorFallback("part_lookup", err)
	}

	return model.PartLookupResponse{
		Base:              model.NewBase(model.KindPartLookup, math.Min(confidence+0.05, capConfidence), false, ""),
		Part:              part,
		Explanation:       g.Explanation,
		InstallationSteps: g.InstallationSteps,
		HelpfulTips:       nonNil(g.Tips),
		RelatedParts:      c.relatedParts(part, relatedLimit),
	}
}

func (c *Composer) partText(ctx context.Context, part model.Part, query string) (generated, error) {
	prompt, err := prompts.RenderPartLookup(ctx, query, part)
	if err != nil {
		return partFallback(part), err
	}
	g, err := c.generate(ctx, prompt)
	if err != nil {
		return partFallback(part), err
	}
	if err := c.validator.CheckInstallation(g); err != nil {
		return generated{
			Explanation:       fmt.Sprintf("Part %s - %s", part.ID, part.Title),
			InstallationSteps: []string{"Disconnect power", "Remove old part", "Install new part", "Test"},
			Tips:              []string{"Refer to manual"},
		}, err
	}
	return g, nil
}

// Compatibility answers whether a part fits a model the catalog knows. An
// incompatible part comes with compatible alternatives.
func (c *Composer) Compatibility(ctx context.Context, partID, modelID string, confidence float64, query string) model.Response {
	part, ok := c.catalog.LookupPart(partID)
	if !ok {
		return notFound(fmt.Sprintf("Part %s not found in database.", partID), 0.3)
	}
	compatible := c.catalog.IsCompatible(modelID, partID)

	g := compatibilityFallback(part, modelID, compatible)
	prompt, err := prompts.RenderCompatibility(ctx, query, part, modelID, compatible)
	if err == nil {
		var out generated
		if out, err = c.generate(ctx, prompt); err == nil {
			if err = c.validator.Check(out); err == nil {
				g = out
			}
		}
	}
	if err != nil {
		generatorFallback("compatibility", err)
	}

	resp := model.CompatibilityResponse{
		PartID:           partID,
		ModelID:          modelID,
		Compatible:       &compatible,
		Part:             &part,
		AlternativeParts: []model.ScoredPart{},
		Explanation:      g.Explanation,
		HelpfulTips:      nonNil(g.Tips),
	}
	if compatible {
		resp.Base = model.NewBase(model.KindCompatibility, math.Min(confidence+0.15, capConfidence), false, "")
		return resp
	}
	resp.Base = model.NewBase(model.KindCompatibility, confidence, false, "")
	resp.AlternativeParts = nonNilParts(c.alternatives(modelID, part, alternativeLimit))
	return resp
}

// CompatibilityUnvalidated handles a compatibility question about a model the
// catalog does not know: compatibility stays unknown and similar parts are
// offered while the user checks the model number.
func (c *Composer) CompatibilityUnvalidated(ctx context.Context, partID, modelID string, confidence float64, query string) model.Response {
	part, known := c.catalog.LookupPart(partID)

	searchQuery := query
	if known {
		searchQuery = strings.TrimSpace(fmt.Sprintf("%s %s %s", part.Title, part.Description, strings.Join(part.Symptoms, "|")))
	}
	candidates, err := c.runSearch(ctx, searchQuery, compatibilityTopK)
	if err != nil {
		logx.Warn().Err(err).Str("model_id", modelID).Msg("search failed for unvalidated compatibility")
	}

	alternatives := []model.ScoredPart{}
	for _, cand := range candidates {
		if cand.ID == "" || cand.ID == partID {
			continue
		}
		alternatives = append(alternatives, cand)
		if len(alternatives) == alternativeLimit {
			break
		}
	}

	questions := []string{
		"Could you double-check the model number (letters and numbers)?",
		"If you share a corrected model number, I can confirm exact compatibility.",
	}
	if len(alternatives) == 0 {
		questions = append(questions, "I can also help you find the model tag location if needed.")
	}

	resp := model.CompatibilityResponse{
		Base:             model.NewBase(model.KindCompatibility, math.Min(confidence, 0.7), true, ""),
		PartID:           partID,
		ModelID:          modelID,
		AlternativeParts: alternatives,
		Explanation: fmt.Sprintf("I couldn't verify model %s in our compatibility database, so I can't confirm whether "+
			"%s is compatible yet. I shared 2-3 likely alternatives to help you continue while you verify the model.", modelID, partID),
		HelpfulTips: []string{
			"Model numbers are usually inside the door frame or on a side/back sticker.",
			"Use the exact model number to avoid ordering incompatible parts.",
		},
		ClarificationQuestions: questions,
	}
	if known {
		resp.Part = &part
	}
	return resp
}

// Symptom recommends parts for a symptom on a model the catalog knows,
// restricted to the model's compatible parts.
func (c *Composer) Symptom(ctx context.Context, symptom, modelID string, session model.Session, confidence float64, query string) model.Response {
	results, err := c.runSearch(ctx, BuildSearchQuery(symptom, session), symptomSearchTopK)
	if err != nil || len(results) == 0 {
		metrics.SearchFallbacks.WithLabelValues("popular").Inc()
		logx.Warn().Err(err).Str("symptom", symptom).Msg("search gave nothing; using popular parts")
		results = c.catalog.PopularParts(session.Appliance, popularLimit)
	}

	ranked := Rerank(FilterByModel(results, c.catalog.CompatibleParts(modelID)), symptom)
	top := head(ranked, recommendLimit)
	g := c.diagnosticText(ctx, symptom, modelID, top, query)

	conf := SymptomConfidence(ranked, confidence)
	return model.SymptomSolutionResponse{
		Base:             model.NewBase(model.KindSymptomSolution, conf, conf < clarifySymptomBelow, ""),
		Symptom:          symptom,
		ModelID:          modelID,
		ModelVerified:    true,
		RecommendedParts: nonNilParts(top),
		Explanation:      g.Explanation,
		DiagnosticSteps:  nonNil(g.DiagnosticSteps),
		HelpfulTips:      nonNil(g.Tips),
	}
}

// SymptomUnvalidated recommends parts for a symptom when the model is unknown.
// Search is widened step by step: the symptom query, the appliance's common
// parts, the popular parts list. The answer carries a compatibility disclaimer.
func (c *Composer) SymptomUnvalidated(ctx context.Context, symptom, modelID string, session model.Session, confidence float64, query string) model.Response {
	appliance := session.Appliance
	if appliance == "" {
		appliance = "refrigerator"
	}

	results, err := c.runSearch(ctx, BuildSearchQuery(symptom, session), unvalidatedTopK)
	if err != nil {
		logx.Warn().Err(err).Str("symptom", symptom).Msg("primary search failed")
	}
	if len(results) == 0 {
		metrics.SearchFallbacks.WithLabelValues("broadened").Inc()
		if results, err = c.runSearch(ctx, appliance+" common parts", unvalidatedTopK); err != nil {
			logx.Warn().Err(err).Str("appliance", appliance).Msg("broadened search failed")
		}
	}
	if len(results) == 0 {
		metrics.SearchFallbacks.WithLabelValues("popular").Inc()
		results = c.catalog.PopularParts(appliance, popularLimit)
	}
	if len(results) == 0 {
		metrics.SearchFallbacks.WithLabelValues("empty").Inc()
		return notFound(fmt.Sprintf("I couldn't find parts for '%s' in our database.", symptom), confidence,
			"Could you describe the problem in more detail?",
			"What specific behavior are you seeing?",
		)
	}

	ranked := Rerank(results, symptom)
	top := head(ranked, recommendLimit)
	g := c.diagnosticText(ctx, symptom, modelID, top, query)

	explanation := fmt.Sprintf("Note: Model %s is not in our database, so I cannot verify part compatibility.\n\n"+
		"Here are parts that typically fix '%s':\n\n%s", modelID, symptom, g.Explanation)
	tips := append([]string{
		fmt.Sprintf("Verify part compatibility with model %s before purchasing", modelID),
		"Check the product page for complete compatibility information",
		"Contact the manufacturer if unsure about compatibility",
	}, g.Tips...)

	return model.SymptomSolutionResponse{
		Base:             model.NewBase(model.KindSymptomSolution, confidence, false, ""),
		Symptom:          symptom,
		ModelID:          modelID,
		ModelVerified:    false,
		RecommendedParts: top,
		Explanation:      explanation,
		DiagnosticSteps:  nonNil(g.DiagnosticSteps),
		HelpfulTips:      tips,
	}
}

func (c *Composer) diagnosticText(ctx context.Context, symptom, modelID string, top []model.ScoredPart, query string) generated {
	prompt, err := prompts.RenderDiagnostic(ctx, query, symptom, modelID, top)
	if err != nil {
		generatorFallback("symptom", err)
		return diagnosticFallback(symptom)
	}
	g, err := c.generate(ctx, prompt)
	if err == nil {
		err = c.validator.Check(g)
	}
	if err != nil {
		generatorFallback("symptom", err)
		return diagnosticFallback(symptom)
	}
	if !c.validator.MentionsRecommended(g, top) {
		logx.Debug().Str("symptom", symptom).Msg("generated diagnosis names none of the recommended parts")
	}
	return g
}

// runSearch bounds the search call by the configured timeout. A nil searcher
// is reported as unavailable.
func (c *Composer) runSearch(ctx context.Context, query string, topK int) ([]model.ScoredPart, error) {
	if c.search == nil {
		return nil, errx.ErrSearchUnavailable
	}
	if c.cfg.SearchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.SearchTimeout)
		defer cancel()
	}
	out, err := c.search.Search(ctx, query, topK)
	if err != nil && !errors.Is(err, errx.ErrSearchUnavailable) {
		err = errx.Wrap(errx.ErrSearchUnavailable, err)
	}
	return out, err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilParts(p []model.ScoredPart) []model.ScoredPart {
	if p == nil {
		return []model.ScoredPart{}
	}
	return p
}

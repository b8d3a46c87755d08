package composer

import (
	"context"
	"fmt"
	"strings"

	"github.com/partdesk-core-poc-v1/server/internal/agent/extract"
	"github.com/partdesk-core-poc-v1/server/internal/agent/graph/parsers"
	"github.com/partdesk-core-poc-v1/server/internal/agent/model"
	errx "github.com/partdesk-core-poc-v1/server/internal/core/error"
	"github.com/partdesk-core-poc-v1/server/internal/metrics"
	logx "github.com/partdesk-core-poc-v1/server/pkg/logger"
)

const (
	minSteps       = 3
	maxSteps       = 8
	minExplanation = 20
)

// generated is the JSON object the generator is asked to produce.
type generated struct {
	Explanation       string   `json:"explanation"`
	InstallationSteps []string `json:"installation_steps,omitempty"`
	DiagnosticSteps   []string `json:"diagnostic_steps,omitempty"`
	Tips              []string `json:"tips"`
}

func (g generated) text() string {
	parts := []string{g.Explanation}
	parts = append(parts, g.InstallationSteps...)
	parts = append(parts, g.DiagnosticSteps...)
	parts = append(parts, g.Tips...)
	return strings.Join(parts, "\n")
}

// generate sends a rendered prompt and decodes the JSON object in the reply.
// A nil generator reports ErrGeneratorUnavailable.
func (c *Composer) generate(ctx context.Context, prompt string) (generated, error) {
	if c.generator == nil {
		return generated{}, errx.ErrGeneratorUnavailable
	}
	if c.cfg.GeneratorTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.GeneratorTimeout)
		defer cancel()
	}
	reply, err := c.generator.Generate(ctx, prompt)
	if err != nil {
		return generated{}, errx.Wrap(errx.ErrGeneratorUnavailable, err)
	}
	var g generated
	if err := parsers.ParseJSON(reply, &g); err != nil {
		return generated{}, errx.Wrap(errx.ErrGeneratorUnavailable, err)
	}
	return g, nil
}

func generatorFallback(handler string, err error) {
	metrics.GeneratorFallbacks.WithLabelValues(handler).Inc()
	logx.Warn().Err(err).Str("handler", handler).Msg("generated text unusable; using fallback")
}

// Validator rejects generated text that mentions unknown parts or is too thin
// to be useful.
type Validator struct {
	catalog Catalog
}

func NewValidator(catalog Catalog) *Validator {
	return &Validator{catalog: catalog}
}

// Check reports why g is unusable, or nil.
func (v *Validator) Check(g generated) error {
	for _, id := range extract.PartPattern.FindAllString(strings.ToUpper(g.text()), -1) {
		if _, ok := v.catalog.LookupPart(id); !ok {
			return fmt.Errorf("mentions unknown part %s", id)
		}
	}
	if g.Explanation != "" && len(g.Explanation) < minExplanation {
		return fmt.Errorf("explanation too short (%d chars)", len(g.Explanation))
	}
	return nil
}

// CheckInstallation also requires a usable number of installation steps.
func (v *Validator) CheckInstallation(g generated) error {
	if n := len(g.InstallationSteps); n < minSteps || n > maxSteps {
		return fmt.Errorf("%d installation steps", n)
	}
	return v.Check(g)
}

// MentionsRecommended reports whether the text names at least one recommended part.
func (v *Validator) MentionsRecommended(g generated, recommended []model.ScoredPart) bool {
	if len(recommended) == 0 {
		return true
	}
	text := strings.ToUpper(g.text())
	for _, p := range recommended {
		if strings.Contains(text, p.ID) {
			return true
		}
	}
	return false
}

func partFallback(p model.Part) generated {
	return generated{
		Explanation: fmt.Sprintf("Part %s - %s.", p.ID, p.Title),
		InstallationSteps: []string{
			"Disconnect power to the appliance",
			"Remove the old part",
			"Install the new part according to instructions",
			"Reconnect power and test",
		},
		Tips: []string{"Refer to the product page for full details"},
	}
}

func compatibilityFallback(p model.Part, modelID string, compatible bool) generated {
	verdict := "not compatible"
	if compatible {
		verdict = "compatible"
	}
	return generated{
		Explanation: fmt.Sprintf("Part %s is %s with model %s.", p.ID, verdict, modelID),
		Tips:        []string{},
	}
}

func diagnosticFallback(symptom string) generated {
	return generated{
		Explanation: fmt.Sprintf("Based on '%s', here are the most likely parts:", symptom),
		DiagnosticSteps: []string{
			"Verify the issue is occurring consistently",
			"Check for obvious signs of damage",
			"Test the affected component",
		},
		Tips: []string{},
	}
}

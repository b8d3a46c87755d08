package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/partdesk-core-poc-v1/server/internal/agent/model"
	"github.com/partdesk-core-poc-v1/server/internal/core"
)

var (
	//go:embed template/part_lookup_prompt.txt
	partLookupPrompt string

	//go:embed template/compatibility_prompt.txt
	compatibilityPrompt string

	//go:embed template/diagnostic_prompt.txt
	diagnosticPrompt string
)

const maxPartDescription = 200

// partLine is one recommended part as shown to the generator.
type partLine struct {
	ID          string
	Title       string
	Score       string
	Description string
}

// RenderPartLookup renders the installation-help prompt for one part.
func RenderPartLookup(ctx context.Context, query string, part model.Part) (string, error) {
	return render(ctx, "part lookup", partLookupPrompt, map[string]any{
		"Query": query,
		"Part":  part,
	})
}

// RenderCompatibility renders the compatibility explanation prompt.
func RenderCompatibility(ctx context.Context, query string, part model.Part, modelID string, compatible bool) (string, error) {
	return render(ctx, "compatibility", compatibilityPrompt, map[string]any{
		"Query":      query,
		"Part":       part,
		"ModelID":    modelID,
		"Compatible": compatible,
	})
}

// RenderDiagnostic renders the troubleshooting prompt for a symptom and its
// recommended parts.
func RenderDiagnostic(ctx context.Context, query, symptom, modelID string, parts []model.ScoredPart) (string, error) {
	lines := make([]partLine, 0, len(parts))
	for _, p := range parts {
		desc := p.Description
		if desc == "" {
			desc = "N/A"
		}
		desc = core.TruncateRunes(desc, maxPartDescription)
		lines = append(lines, partLine{
			ID:          p.ID,
			Title:       p.Title,
			Score:       strconv.FormatFloat(p.Relevance(), 'f', 3, 64),
			Description: desc,
		})
	}
	return render(ctx, "diagnostic", diagnosticPrompt, map[string]any{
		"Query":   query,
		"Symptom": symptom,
		"ModelID": modelID,
		"Parts":   lines,
	})
}

// render formats a Go template through the eino prompt component so prompt
// callbacks fire for generator prompts too.
func render(ctx context.Context, name, text string, vars map[string]any) (string, error) {
	tpl := prompt.FromMessages(schema.GoTemplate, schema.UserMessage(text))
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("%s prompt render: %w", name, err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("%s prompt render: empty result", name)
	}
	return msgs[0].Content, nil
}

package generator

import (
	"context"
	"fmt"

	"github.com/BerylCAtieno/persona-schedule-generator/internal/models"
	"github.com/BerylCAtieno/persona-schedule-generator/internal/prompt"
)

// ProfilePrompt renders the few-shot persona prompt for guidance.
func (g *Generator) ProfilePrompt(guidance string) (string, error) {
	set, err := g.promptSet(models.PromptProfile)
	if err != nil {
		return "", err
	}

	examples := make([]map[string]string, 0, len(g.tables.Examples.Profile))
	for _, ex := range g.tables.Examples.Profile {
		examples = append(examples, prompt.EscapeValues(ex))
	}

	fs := &prompt.FewShot{
		Prefix:          set.Prefix,
		Suffix:          set.Suffix,
		ExampleTemplate: set.Prompt,
		Examples:        examples,
	}
	text, err := fs.Format(map[string]string{
		"guidance": guidance,
		"template": set.Template,
	})
	if err != nil {
		return "", fmt.Errorf("profile prompt: %w", err)
	}
	return text, nil
}

// GenerateProfile asks the model for a persona description matching guidance.
// The answer is returned as the model wrote it.
func (g *Generator) GenerateProfile(ctx context.Context, guidance string) (string, error) {
	text, err := g.ProfilePrompt(guidance)
	if err != nil {
		return "", err
	}
	g.log.Debug("profile prompt assembled", "examples", len(g.tables.Examples.Profile))

	return g.complete(ctx, g.completer, models.PromptProfile, text, g.temperatures.Profile)
}

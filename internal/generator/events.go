package generator

import (
	"context"
	"fmt"

	"github.com/BerylCAtieno/persona-schedule-generator/internal/models"
	"github.com/BerylCAtieno/persona-schedule-generator/internal/prompt"
	"github.com/BerylCAtieno/persona-schedule-generator/internal/schema"
)

var eventRequest = prompt.MustParse("{request}\n{profile}\n{format_instructions}")

// EventPrompt renders the single-turn event request for profile.
func (g *Generator) EventPrompt(profile string) (string, error) {
	set, err := g.promptSet(models.PromptEvent)
	if err != nil {
		return "", err
	}

	return eventRequest.Render(map[string]string{
		"request":             set.Prompt,
		"profile":             profile,
		"format_instructions": schema.FormatInstructions(schema.EventSet),
	})
}

// ProposeEvents asks the model which kinds of recurring activities fit
// profile. An answer that does not match the EventSet schema is returned as
// a *schema.ValidationError.
func (g *Generator) ProposeEvents(ctx context.Context, profile string) (models.EventSet, error) {
	text, err := g.EventPrompt(profile)
	if err != nil {
		return models.EventSet{}, err
	}

	out, err := g.complete(ctx, g.completer, models.PromptEvent, text, g.temperatures.Event)
	if err != nil {
		return models.EventSet{}, err
	}

	events, err := schema.DecodeEventSet(out)
	if err != nil {
		g.log.Warn("event answer rejected", "error", err)
		return models.EventSet{}, fmt.Errorf("parse event set: %w", err)
	}
	g.log.Debug("events proposed", "count", len(events.Event))
	return events, nil
}

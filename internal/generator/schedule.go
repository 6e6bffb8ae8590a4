package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BerylCAtieno/persona-schedule-generator/internal/models"
	"github.com/BerylCAtieno/persona-schedule-generator/internal/prompt"
	"github.com/BerylCAtieno/persona-schedule-generator/internal/schema"
)

// SerializeEntry returns the single-line JSON form of entry with fields in
// declaration order. &, < and > are kept as written.
func SerializeEntry(entry models.ScheduleEntry) (string, error) {
	return encodeJSON(entry)
}

func encodeJSON(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// curateScheduleExamples validates every example entry and turns each example
// into escaped template values.
func curateScheduleExamples(examples []models.ScheduleExample) ([]map[string]string, error) {
	curated := make([]map[string]string, 0, len(examples))
	for i, ex := range examples {
		lines := make([]string, 0, len(ex.ScheduleExample))
		for j, raw := range ex.ScheduleExample {
			entry, err := schema.DecodeScheduleEntry(raw)
			if err != nil {
				return nil, fmt.Errorf("schedule example %d entry %d: %w", i, j, err)
			}
			line, err := SerializeEntry(entry)
			if err != nil {
				return nil, fmt.Errorf("schedule example %d entry %d: %w", i, j, err)
			}
			lines = append(lines, prompt.Escape(line))
		}

		events, err := encodeJSON(ex.EventExample)
		if err != nil {
			return nil, fmt.Errorf("schedule example %d events: %w", i, err)
		}

		curated = append(curated, map[string]string{
			"persona":          prompt.Escape(ex.Persona),
			"event_example":    prompt.Escape(events),
			"schedule_example": strings.Join(lines, "\n"),
		})
	}
	return curated, nil
}

// SchedulePrompt renders the few-shot schedule prompt. events is the live
// event list proposed for persona; startDate and endDate are inserted as given.
func (g *Generator) SchedulePrompt(persona, startDate, endDate string, events models.EventSet) (string, error) {
	set, err := g.promptSet(models.PromptSchedule)
	if err != nil {
		return "", err
	}

	examples, err := curateScheduleExamples(g.tables.Examples.Schedule)
	if err != nil {
		return "", err
	}

	return schedulePrompt(set, examples, persona, startDate, endDate, events)
}

func schedulePrompt(set models.PromptSet, examples []map[string]string, persona, startDate, endDate string, events models.EventSet) (string, error) {
	eventList := events.Event
	if eventList == nil {
		eventList = []string{}
	}
	live, err := encodeJSON(eventList)
	if err != nil {
		return "", fmt.Errorf("encode events: %w", err)
	}

	fs := &prompt.FewShot{
		Prefix:          set.Prefix,
		Suffix:          set.Suffix,
		ExampleTemplate: set.Prompt,
		Examples:        examples,
	}
	text, err := fs.Format(map[string]string{
		"persona":             persona,
		"start_date":          startDate,
		"end_date":            endDate,
		"event_example":       live,
		"format_instructions": schema.FormatInstructions(schema.Schedule),
	})
	if err != nil {
		return "", fmt.Errorf("schedule prompt: %w", err)
	}
	return text, nil
}

// GenerateSchedule proposes events for persona, then asks the model for a
// dated schedule between startDate and endDate.
//
// The answer is returned unparsed even though the prompt asks for the
// Schedule schema. Callers that need typed entries pass it to
// schema.DecodeSchedule.
func (g *Generator) GenerateSchedule(ctx context.Context, persona, startDate, endDate string) (string, error) {
	// Fail on a missing prompt or broken examples before spending a model call.
	set, err := g.promptSet(models.PromptSchedule)
	if err != nil {
		return "", err
	}
	examples, err := curateScheduleExamples(g.tables.Examples.Schedule)
	if err != nil {
		return "", err
	}

	events, err := g.ProposeEvents(ctx, persona)
	if err != nil {
		return "", err
	}

	text, err := schedulePrompt(set, examples, persona, startDate, endDate, events)
	if err != nil {
		return "", err
	}
	g.log.Debug("schedule prompt assembled",
		"examples", len(g.tables.Examples.Schedule),
		"start_date", startDate,
		"end_date", endDate,
	)

	return g.complete(ctx, g.scheduleCompleter, models.PromptSchedule, text, g.temperatures.Schedule)
}

// Package generator builds persona profiles and weekly schedules by prompting
// a text-generation model with few-shot examples.
package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/BerylCAtieno/persona-schedule-generator/internal/llm"
	"github.com/BerylCAtieno/persona-schedule-generator/internal/models"
)

var ErrMissingPrompt = errors.New("prompt not found in prompt table")

// Temperatures are the sampling temperatures of the three model calls.
type Temperatures struct {
	Profile  float32
	Event    float32
	Schedule float32
}

var DefaultTemperatures = Temperatures{
	Profile:  0.9,
	Event:    0.9,
	Schedule: 0.5,
}

type Generator struct {
	tables    models.Tables
	completer llm.Completer
	// schedule prompts are long; they may go to a larger-context model
	scheduleCompleter llm.Completer
	temperatures      Temperatures
	log               *slog.Logger
}

type Option func(*Generator)

func WithScheduleCompleter(c llm.Completer) Option {
	return func(g *Generator) {
		if c != nil {
			g.scheduleCompleter = c
		}
	}
}

func WithTemperatures(t Temperatures) Option {
	return func(g *Generator) {
		g.temperatures = t
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.log = l
		}
	}
}

// New returns a Generator reading prompts and examples from tables. tables is
// never modified.
func New(tables models.Tables, completer llm.Completer, opts ...Option) *Generator {
	g := &Generator{
		tables:            tables,
		completer:         completer,
		scheduleCompleter: completer,
		temperatures:      DefaultTemperatures,
		log:               slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) promptSet(name string) (models.PromptSet, error) {
	set, ok := g.tables.Prompts[name]
	if !ok {
		return models.PromptSet{}, fmt.Errorf("%w: %q", ErrMissingPrompt, name)
	}
	return set, nil
}

func (g *Generator) complete(ctx context.Context, c llm.Completer, name, text string, temperature float32) (string, error) {
	g.log.Info("calling model", "prompt", name, "chars", len(text), "temperature", temperature)
	out, err := c.Complete(ctx, text, temperature)
	if err != nil {
		g.log.Error("model call failed", "prompt", name, "error", err)
		return "", err
	}
	g.log.Debug("model answered", "prompt", name, "chars", len(out))
	return out, nil
}

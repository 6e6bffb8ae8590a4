// Package llm is the text-generation capability the generators depend on.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoContent       = errors.New("no content generated")
	ErrTruncated       = errors.New("answer truncated at the output token limit")
	ErrUnknownProvider = errors.New("unknown completion provider")
)

// Completer sends one rendered prompt to a model and returns its text answer.
type Completer interface {
	Complete(ctx context.Context, prompt string, temperature float32) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string, temperature float32) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	return f(ctx, prompt, temperature)
}

// Client is a Completer holding a connection that must be released.
type Client interface {
	Completer
	Close() error
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Options struct {
	Provider  string
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
}

// New returns the client for opts.Provider.
func New(ctx context.Context, opts Options) (Client, error) {
	switch strings.ToLower(opts.Provider) {
	case ProviderGemini, "":
		c, err := NewGeminiCompleter(ctx, opts)
		if err != nil {
			return nil, err
		}
		return c, nil
	case ProviderOpenAI:
		return NewOpenAICompleter(opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, opts.Provider)
	}
}

package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	oaioption "github.com/openai/openai-go/v3/option"
)

const DefaultOpenAIModel = "gpt-3.5-turbo"

// OpenAICompleter sends the prompt as a single user message of a chat
// completion. The client is configured without retries.
type OpenAICompleter struct {
	client    openai.Client
	model     string
	maxTokens int
}

func NewOpenAICompleter(opts Options, clientOpts ...oaioption.RequestOption) *OpenAICompleter {
	clientOpts = append([]oaioption.RequestOption{
		oaioption.WithAPIKey(opts.APIKey),
		oaioption.WithMaxRetries(0),
	}, clientOpts...)
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, oaioption.WithBaseURL(opts.BaseURL))
	}

	model := opts.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	return &OpenAICompleter{
		client:    openai.NewClient(clientOpts...),
		model:     model,
		maxTokens: opts.MaxTokens,
	}
}

func (o *OpenAICompleter) Close() error {
	return nil
}

func (o *OpenAICompleter) Complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(float64(temperature)),
	}
	if o.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(o.maxTokens))
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrNoContent
	}
	if resp.Choices[0].FinishReason == "length" {
		return "", ErrTruncated
	}
	return resp.Choices[0].Message.Content, nil
}

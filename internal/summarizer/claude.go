package summarizer

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"talk-less/internal/resilience/circuitbreaker"
)

// ClaudeProvider implements Provider using Anthropic's Claude API, guarded
// by a circuit breaker so a struggling provider degrades the run instead of
// stalling it.
type ClaudeProvider struct {
	client         anthropic.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	maxTokens      int64
}

// NewClaudeProvider builds a ClaudeProvider from an API key.
func NewClaudeProvider(apiKey string, maxTokens int64) *ClaudeProvider {
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	return &ClaudeProvider{
		client:         anthropic.NewClient(option.WithAPIKey(apiKey)),
		circuitBreaker: circuitbreaker.New(circuitbreaker.ClaudeAPIConfig()),
		maxTokens:      maxTokens,
	}
}

// Complete sends prompt to Claude and returns the text completion.
func (c *ClaudeProvider) Complete(ctx context.Context, model string, temperature float64, prompt string) (string, error) {
	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return c.doComplete(ctx, model, temperature, prompt)
	})
	if err != nil {
		return "", classifyClaudeError(err)
	}
	return result.(string), nil
}

func (c *ClaudeProvider) doComplete(ctx context.Context, model string, temperature float64, prompt string) (string, error) {
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", err
	}

	if len(message.Content) == 0 {
		return "", fmt.Errorf("claude api returned empty response")
	}
	textBlock, ok := message.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		return "", fmt.Errorf("claude api returned unexpected response type")
	}
	return textBlock.Text, nil
}

func classifyClaudeError(err error) *ProviderError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &ProviderError{Class: ClassTransient, Err: err}
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests:
			return &ProviderError{Class: ClassQuota, Err: err}
		case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return &ProviderError{Class: ClassTransient, Err: err}
		default:
			return &ProviderError{Class: ClassPermanent, Err: err}
		}
	}

	return &ProviderError{Class: ClassTransient, Err: err}
}

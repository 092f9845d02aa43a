package summarizer

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"talk-less/internal/resilience/circuitbreaker"
)

// OpenAIProvider implements Provider using OpenAI's chat completion API,
// guarded by a circuit breaker so a struggling provider degrades the run
// instead of stalling it.
type OpenAIProvider struct {
	client         *openai.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	maxTokens      int
}

// NewOpenAIProvider builds an OpenAIProvider from an API key.
func NewOpenAIProvider(apiKey string, maxTokens int) *OpenAIProvider {
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	return &OpenAIProvider{
		client:         openai.NewClient(apiKey),
		circuitBreaker: circuitbreaker.New(circuitbreaker.OpenAIAPIConfig()),
		maxTokens:      maxTokens,
	}
}

// Complete sends prompt to OpenAI and returns the text completion.
func (o *OpenAIProvider) Complete(ctx context.Context, model string, temperature float64, prompt string) (string, error) {
	result, err := o.circuitBreaker.Execute(func() (interface{}, error) {
		return o.doComplete(ctx, model, temperature, prompt)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			return "", &ProviderError{Class: ClassTransient, Err: err}
		}
		return "", classifyOpenAIError(err)
	}
	return result.(string), nil
}

func (o *OpenAIProvider) doComplete(ctx context.Context, model string, temperature float64, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		MaxTokens:   o.maxTokens,
		Temperature: float32(temperature),
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		}},
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai api returned empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

func classifyOpenAIError(err error) *ProviderError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &ProviderError{Class: ClassTransient, Err: err}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			return &ProviderError{Class: ClassQuota, Err: err}
		case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return &ProviderError{Class: ClassTransient, Err: err}
		default:
			return &ProviderError{Class: ClassPermanent, Err: err}
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &ProviderError{Class: ClassTransient, Err: err}
	}

	return &ProviderError{Class: ClassPermanent, Err: err}
}

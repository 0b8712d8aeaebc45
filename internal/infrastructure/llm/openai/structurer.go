package openai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"github.com/kirillkom/shelf-inspector/internal/core/domain"
	"github.com/kirillkom/shelf-inspector/internal/infrastructure/llm/schema"
	"github.com/kirillkom/shelf-inspector/internal/infrastructure/resilience"
)

// Structurer extracts product fields with an OpenAI-compatible chat model
// using a strict JSON schema response format.
type Structurer struct {
	client   *openai.Client
	model    string
	executor *resilience.Executor
}

func New(apiKey, model, baseURL string, executor *resilience.Executor) *Structurer {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Structurer{
		client:   openai.NewClientWithConfig(config),
		model:    model,
		executor: executor,
	}
}

func (s *Structurer) Structure(ctx context.Context, text string) (domain.ProductDetails, error) {
	req := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: schema.Instruction},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schema.Name,
				Schema: schema.JSONSchema(),
				Strict: true,
			},
		},
	}

	content, err := resilience.Call(ctx, s.executor, "openai.chat", func(callCtx context.Context) (string, error) {
		resp, err := s.client.CreateChatCompletion(callCtx, req)
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("no response choices")
		}
		return resp.Choices[0].Message.Content, nil
	}, classifyError)
	if err != nil {
		return domain.ProductDetails{}, wrapTemporaryIfNeeded(err)
	}

	details, err := schema.Decode(content)
	if err != nil {
		return domain.ProductDetails{}, fmt.Errorf("openai structure: %w", err)
	}
	return details, nil
}

func classifyError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	if status != 0 {
		retryable := status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
		return resilience.ErrorClassification{Retryable: retryable, RecordFailure: retryable}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}

func wrapTemporaryIfNeeded(err error) error {
	if domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classifyError(err).Retryable {
		return domain.WrapError(domain.ErrTemporary, "openai chat", err)
	}
	return fmt.Errorf("openai chat: %w", err)
}

package claude

import (
	"context"
	"errors"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/kirillkom/shelf-inspector/internal/core/domain"
	"github.com/kirillkom/shelf-inspector/internal/infrastructure/llm/schema"
	"github.com/kirillkom/shelf-inspector/internal/infrastructure/resilience"
)

const maxTokens = 512

// Structurer extracts product fields with an Anthropic model. The schema is
// enforced on the decoded reply.
type Structurer struct {
	client   *anthropic.Client
	model    string
	executor *resilience.Executor
}

func New(apiKey, model, baseURL string, executor *resilience.Executor) *Structurer {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	return &Structurer{
		client:   anthropic.NewClient(apiKey, opts...),
		model:    model,
		executor: executor,
	}
}

func (s *Structurer) Structure(ctx context.Context, text string) (domain.ProductDetails, error) {
	req := anthropic.MessagesRequest{
		Model:  anthropic.Model(s.model),
		System: schema.Instruction,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(text),
		},
		MaxTokens: maxTokens,
	}

	content, err := resilience.Call(ctx, s.executor, "claude.messages", func(callCtx context.Context) (string, error) {
		resp, err := s.client.CreateMessages(callCtx, req)
		if err != nil {
			return "", err
		}
		for _, block := range resp.Content {
			if block.Text != nil {
				return *block.Text, nil
			}
		}
		return "", fmt.Errorf("no response content")
	}, classifyError)
	if err != nil {
		if classifyError(err).Retryable {
			return domain.ProductDetails{}, domain.WrapError(domain.ErrTemporary, "claude messages", err)
		}
		return domain.ProductDetails{}, fmt.Errorf("claude messages: %w", err)
	}

	details, err := schema.Decode(content)
	if err != nil {
		return domain.ProductDetails{}, fmt.Errorf("claude structure: %w", err)
	}
	return details, nil
}

func classifyError(err error) resilience.ErrorClassification {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	var reqErr *anthropic.RequestError
	if errors.As(err, &reqErr) {
		retryable := reqErr.StatusCode == 429 || reqErr.StatusCode >= 500
		return resilience.ErrorClassification{Retryable: retryable, RecordFailure: retryable}
	}
	var apiErr *anthropic.APIError
	if errors.As(err, &apiErr) {
		retryable := apiErr.IsRateLimitErr() || apiErr.IsOverloadedErr() || apiErr.IsApiErr()
		return resilience.ErrorClassification{Retryable: retryable, RecordFailure: retryable}
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}

package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/kirillkom/shelf-inspector/internal/core/domain"
	"github.com/kirillkom/shelf-inspector/internal/infrastructure/llm/schema"
	"github.com/kirillkom/shelf-inspector/internal/infrastructure/resilience"
)

// Structurer extracts product fields with a Gemini model in JSON mode.
type Structurer struct {
	client   *genai.Client
	model    string
	executor *resilience.Executor
}

func New(ctx context.Context, apiKey, model string, executor *resilience.Executor) (*Structurer, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Structurer{client: client, model: model, executor: executor}, nil
}

func (s *Structurer) Close() error {
	return s.client.Close()
}

func (s *Structurer) Structure(ctx context.Context, text string) (domain.ProductDetails, error) {
	model := s.client.GenerativeModel(s.model)
	model.SystemInstruction = genai.NewUserContent(genai.Text(schema.Instruction))
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = responseSchema()
	model.SetTemperature(0)

	content, err := resilience.Call(ctx, s.executor, "gemini.generate", func(callCtx context.Context) (string, error) {
		resp, err := model.GenerateContent(callCtx, genai.Text(text))
		if err != nil {
			return "", err
		}
		return responseText(resp)
	}, classifyError)
	if err != nil {
		if classifyError(err).Retryable {
			return domain.ProductDetails{}, domain.WrapError(domain.ErrTemporary, "gemini generate", err)
		}
		return domain.ProductDetails{}, fmt.Errorf("gemini generate: %w", err)
	}

	details, err := schema.Decode(content)
	if err != nil {
		return domain.ProductDetails{}, fmt.Errorf("gemini structure: %w", err)
	}
	return details, nil
}

func responseSchema() *genai.Schema {
	properties := map[string]*genai.Schema{}
	required := []string{"name", "brand", "pack_size", "mfg_date", "exp_date", "mrp"}
	for _, field := range required {
		properties[field] = &genai.Schema{Type: genai.TypeString}
	}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: properties,
		Required:   required,
	}
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response candidates or content")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no text in response")
	}
	return b.String(), nil
}

func classifyError(err error) resilience.ErrorClassification {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		retryable := apiErr.Code == 429 || apiErr.Code >= 500
		return resilience.ErrorClassification{Retryable: retryable, RecordFailure: retryable}
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}

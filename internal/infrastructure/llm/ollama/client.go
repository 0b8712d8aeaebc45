package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/shelf-inspector/internal/core/domain"
	"github.com/kirillkom/shelf-inspector/internal/infrastructure/llm/schema"
	"github.com/kirillkom/shelf-inspector/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, model string) *Client {
	return NewWithExecutor(baseURL, model, nil)
}

func NewWithExecutor(baseURL, model string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
	}
}

// Structurer asks a local Ollama model for product fields, constraining the
// output with the product JSON schema.
type Structurer struct {
	client *Client
}

func NewStructurer(client *Client) *Structurer {
	return &Structurer{client: client}
}

func (s *Structurer) Structure(ctx context.Context, text string) (domain.ProductDetails, error) {
	respText, err := resilience.Call(ctx, s.client.executor, "ollama.generate", func(callCtx context.Context) (string, error) {
		return s.client.generate(callCtx, buildStructureRequest(s.client.model, text))
	}, classifyOllamaError)
	if err != nil {
		return domain.ProductDetails{}, wrapTemporaryIfNeeded("ollama generate", err)
	}

	details, err := schema.Decode(respText)
	if err != nil {
		return domain.ProductDetails{}, fmt.Errorf("ollama structure: %w", err)
	}
	return details, nil
}

func (c *Client) generate(ctx context.Context, reqBody generateRequest) (string, error) {
	var response struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

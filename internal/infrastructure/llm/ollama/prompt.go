package ollama

import (
	"encoding/json"

	"github.com/kirillkom/shelf-inspector/internal/infrastructure/llm/schema"
)

const maxTextChars = 8000

type generateRequest struct {
	Model   string          `json:"model"`
	System  string          `json:"system"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Format  json.RawMessage `json:"format"`
	Options map[string]any  `json:"options,omitempty"`
}

func buildStructureRequest(model, text string) generateRequest {
	snippet := text
	if len(snippet) > maxTextChars {
		snippet = snippet[:maxTextChars]
	}
	return generateRequest{
		Model:   model,
		System:  schema.Instruction,
		Prompt:  "OCR text:\n" + snippet,
		Stream:  false,
		Format:  schema.JSONSchema(),
		Options: map[string]any{"temperature": 0},
	}
}

package llm

import (
	"context"
	"testing"

	"github.com/kirillkom/shelf-inspector/internal/infrastructure/llm/claude"
	"github.com/kirillkom/shelf-inspector/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/shelf-inspector/internal/infrastructure/llm/openai"
)

func TestNewStructurerSelectsProvider(t *testing.T) {
	cases := []struct {
		provider string
		check    func(any) bool
	}{
		{"openai", func(v any) bool { _, ok := v.(*openai.Structurer); return ok }},
		{"Claude", func(v any) bool { _, ok := v.(*claude.Structurer); return ok }},
		{"", func(v any) bool { _, ok := v.(*ollama.Structurer); return ok }},
		{"ollama", func(v any) bool { _, ok := v.(*ollama.Structurer); return ok }},
	}
	for _, tc := range cases {
		s, closeFn, err := NewStructurer(context.Background(), Config{Provider: tc.provider, Model: "m", APIKey: "k"}, nil)
		if err != nil {
			t.Fatalf("NewStructurer(%q) error = %v", tc.provider, err)
		}
		if !tc.check(s) {
			t.Fatalf("NewStructurer(%q) returned %T", tc.provider, s)
		}
		if err := closeFn(); err != nil {
			t.Fatalf("close error = %v", err)
		}
	}
}

func TestNewStructurerRejectsUnknownProvider(t *testing.T) {
	_, closeFn, err := NewStructurer(context.Background(), Config{Provider: "watson"}, nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if closeFn == nil {
		t.Fatalf("expected non-nil close func")
	}
}

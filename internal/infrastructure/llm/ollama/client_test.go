package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/shelf-inspector/internal/core/domain"
)

func TestStructurerSendsSchemaAndParsesResponse(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		resp, _ := json.Marshal(map[string]string{
			"response": `{"name":"Maggi","brand":"Nestle","pack_size":"70 g","mfg_date":"2024-01-01","exp_date":"2024-10-01","mrp":"14"}`,
		})
		_, _ = w.Write(resp)
	}))
	defer server.Close()

	structurer := NewStructurer(New(server.URL, "llama3.1:8b"))
	details, err := structurer.Structure(context.Background(), "Maggi Nestle 70g")
	if err != nil {
		t.Fatalf("Structure() error = %v", err)
	}
	if details.Brand != "Nestle" || details.ExpDate != "2024-10-01" {
		t.Fatalf("unexpected details: %+v", details)
	}
	if !strings.Contains(captured["prompt"].(string), "Maggi Nestle 70g") {
		t.Fatalf("expected OCR text in prompt, got %v", captured["prompt"])
	}
	format, ok := captured["format"].(map[string]any)
	if !ok || format["type"] != "object" {
		t.Fatalf("expected object schema in format, got %v", captured["format"])
	}
}

func TestStructurerRejectsNonConformingOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"{\"name\":\"x\"}"}`))
	}))
	defer server.Close()

	_, err := NewStructurer(New(server.URL, "gen")).Structure(context.Background(), "text")
	if err == nil || !strings.Contains(err.Error(), "schema") {
		t.Fatalf("expected schema error, got %v", err)
	}
}

func TestStructurerIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewStructurer(New(server.URL, "gen")).Structure(context.Background(), "text")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected 502 to be marked temporary, got %v", err)
	}
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected HTTPStatusError 502, got %v", err)
	}
}

func TestClassifyOllamaErrorDoesNotRetryClientErrors(t *testing.T) {
	class := classifyOllamaError(&HTTPStatusError{Operation: "generate", StatusCode: http.StatusBadRequest})
	if class.Retryable || class.RecordFailure {
		t.Fatalf("expected 400 to be permanent and not recorded, got %+v", class)
	}
	class = classifyOllamaError(context.DeadlineExceeded)
	if class.Retryable {
		t.Fatalf("expected deadline to be non-retryable")
	}
}

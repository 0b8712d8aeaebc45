package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/shelf-inspector/internal/config"
	"github.com/kirillkom/shelf-inspector/internal/core/domain"
	"github.com/kirillkom/shelf-inspector/internal/observability/metrics"
)

type ingestSuccessFake struct{}

func (f ingestSuccessFake) Upload(_ context.Context, filename, mimeType string, body io.Reader) (*domain.Submission, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", io.EOF)
	}

	return &domain.Submission{
		ID:         "sub-1",
		Filename:   filename,
		MimeType:   mimeType,
		StorageKey: "sub-1_" + filename,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

func stringsReader(s string) io.Reader {
	return strings.NewReader(s)
}

func pngPayload(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func newRawImageRequest(t *testing.T, path string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(pngPayload(t)))
	req.Header.Set("Content-Type", "image/png")
	return req
}

func newMultipartImageRequest(t *testing.T, path string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "item.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(pngPayload(t)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func newRouterForIngestTests() http.Handler {
	return NewRouter(config.Config{}, &analyzerFake{}, ingestSuccessFake{}).Handler()
}

func TestHealthzEndpoint(t *testing.T) {
	handler := newRouterForIngestTests()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if res.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected %s header", requestIDHeader)
	}
}

func TestAnalyzeMultipartReturnsNormalizedResponse(t *testing.T) {
	handler := newRouterForIngestTests()
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, newMultipartImageRequest(t, "/v1/analyze"))

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var resp domain.AnalysisResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Name != "Fresh Apple" || resp.Status != "A+ (Super Fresh)" || resp.MRP != "NA" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestAnalyzeDebugIncludesTrace(t *testing.T) {
	handler := newRouterForIngestTests()
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, newRawImageRequest(t, "/v1/analyze?debug=true"))

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var resp domain.Analysis
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Trace.Path != domain.PathFreshness || resp.Trace.Identification.Label != "Apple" {
		t.Fatalf("unexpected trace: %+v", resp.Trace)
	}
}

func TestAnalyzeRequiresImageField(t *testing.T) {
	handler := newRouterForIngestTests()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	_ = writer.WriteField("note", "no image")
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestAnalyzeRejectsGet(t *testing.T) {
	handler := newRouterForIngestTests()
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/analyze", nil))
	if res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", res.Code)
	}
}

func TestSubmitImageReturnsAccepted(t *testing.T) {
	handler := newRouterForIngestTests()
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, newMultipartImageRequest(t, "/v1/images"))

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", res.Code, res.Body.String())
	}
	var sub domain.Submission
	if err := json.NewDecoder(res.Body).Decode(&sub); err != nil {
		t.Fatalf("decode submission: %v", err)
	}
	if sub.ID != "sub-1" || sub.Filename != "item.png" || sub.StorageKey != "sub-1_item.png" {
		t.Fatalf("unexpected submission: %+v", sub)
	}
}

func TestMetricsEndpointExposedWhenEnabled(t *testing.T) {
	handler := NewRouter(config.Config{}, &analyzerFake{}, ingestSuccessFake{}).
		WithMetrics(metrics.NewHTTPServerMetrics("api"), "api").
		Handler()

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "inspector_http_requests_total") {
		t.Fatalf("expected request counter in metrics output")
	}
}

package httpadapter

import (
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kirillkom/shelf-inspector/internal/config"
	"github.com/kirillkom/shelf-inspector/internal/core/domain"
)

type analyzerFake struct {
	analysis *domain.Analysis
	err      error
	calls    int
}

func (f *analyzerFake) Analyze(context.Context, image.Image) (*domain.Analysis, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.analysis != nil {
		return f.analysis, nil
	}
	return &domain.Analysis{
		Response: domain.AnalysisResponse{
			Name: "Fresh Apple", Brand: "NA", PackSize: "NA", MfgDate: "NA", ExpDate: "NA", MRP: "NA",
			Status: "A+ (Super Fresh)",
		},
		Trace: domain.AnalysisTrace{
			Identification: domain.ClassificationResult{Label: "Apple", Confidence: 0.99, InKnownSet: true},
			Path:           domain.PathFreshness,
		},
	}, nil
}

func TestAnalyzeMapsErrorKindsToStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{name: "inference", err: domain.WrapError(domain.ErrInference, "classify", errors.New("session closed")), want: http.StatusInternalServerError},
		{name: "external", err: domain.WrapError(domain.ErrExternalService, "ocr", errors.New("refused")), want: http.StatusBadGateway},
		{name: "temporary", err: domain.WrapError(domain.ErrExternalService, "llm", domain.WrapError(domain.ErrTemporary, "llm", errors.New("503"))), want: http.StatusServiceUnavailable},
		{name: "deadline", err: fmt.Errorf("llm: %w", context.DeadlineExceeded), want: http.StatusGatewayTimeout},
		{name: "invalid input", err: domain.WrapError(domain.ErrInvalidInput, "analyze", errors.New("bad")), want: http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewRouter(config.Config{}, &analyzerFake{err: tc.err}, ingestSuccessFake{}).Handler()
			res := httptest.NewRecorder()
			handler.ServeHTTP(res, newRawImageRequest(t, "/v1/analyze"))
			if res.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, res.Code)
			}
		})
	}
}

func TestAnalyzeRejectsUndecodableImageWithoutInference(t *testing.T) {
	analyzer := &analyzerFake{}
	handler := NewRouter(config.Config{}, analyzer, ingestSuccessFake{}).Handler()

	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", stringsReader("not an image"))
	req.Header.Set("Content-Type", "image/png")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if analyzer.calls != 0 {
		t.Fatalf("expected analyzer not to be called, got %d calls", analyzer.calls)
	}
}

func TestMapErrorToHTTPStatusNotFound(t *testing.T) {
	err := domain.WrapError(domain.ErrSubmissionNotFound, "get", errors.New("id=missing"))
	if got := mapErrorToHTTPStatus(err); got != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", got)
	}
}

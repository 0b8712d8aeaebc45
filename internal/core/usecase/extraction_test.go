package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirillkom/shelf-inspector/internal/core/domain"
)

func TestExpiryStatusAt(t *testing.T) {
	today := time.Date(2026, time.October, 19, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		expDate string
		want    domain.ExpiryStatus
	}{
		{"2020-01-01", domain.StatusExpired},
		{"2099-01-01", domain.StatusNotExpired},
		{"2026-10-19", domain.StatusNotExpired},
		{"2026-10-18", domain.StatusExpired},
		{"30/08/22", domain.StatusUnknown},
		{"01/01/2099", domain.StatusUnknown},
		{"01/02/2099", domain.StatusUnknown},
		{"not-a-date", domain.StatusUnknown},
		{"2024-02-30", domain.StatusUnknown},
		{"2024-13-01", domain.StatusUnknown},
		{"", domain.StatusUnknown},
		{"NA", domain.StatusUnknown},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ExpiryStatusAt(tc.expDate, today), "exp_date=%q", tc.expDate)
	}
}

func TestParseExpiryDateReportsDateParseKind(t *testing.T) {
	_, err := parseExpiryDate("not-a-date")
	assert.True(t, domain.IsKind(err, domain.ErrDateParse))
}

func TestJoinLinesKeepsBackendOrder(t *testing.T) {
	got := JoinLines([]domain.TextLine{{Text: "Sunille"}, {Text: "MRP Rs 100"}, {Text: "29/10/22"}})
	assert.Equal(t, "Sunille MRP Rs 100 29/10/22", got)
	assert.Equal(t, "", JoinLines(nil))
}

func TestExtractStructuresOCRText(t *testing.T) {
	ocr := &ocrStub{lines: []domain.TextLine{{Text: "Bournville", Confidence: 0.91}, {Text: "80 g"}}}
	llm := &structurerStub{details: domain.ProductDetails{
		Name:     "Bournville Rich Cocoa",
		Brand:    "Cadbury",
		PackSize: "80 g",
		MfgDate:  "2022-02-01",
		ExpDate:  "2099-01-01",
		MRP:      "100",
	}}
	bridge := NewTextExtractionBridge(ocr, llm, TextExtractionOptions{}, nil)
	bridge.now = func() time.Time { return time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC) }

	details, err := bridge.Extract(context.Background(), solidImage())
	require.NoError(t, err)

	assert.Equal(t, "Bournville 80 g", llm.text)
	assert.NotEmpty(t, ocr.received, "ocr must receive an encoded image")
	assert.Equal(t, "Cadbury", details.Brand)
	assert.Equal(t, domain.StatusNotExpired, details.Status)
}

func TestExtractWithPreprocessingStillSubmitsJPEG(t *testing.T) {
	ocr := &ocrStub{lines: []domain.TextLine{{Text: "x"}}}
	llm := &structurerStub{details: domain.ProductDetails{ExpDate: "garbage"}}
	bridge := NewTextExtractionBridge(ocr, llm, TextExtractionOptions{Preprocess: true}, nil)

	details, err := bridge.Extract(context.Background(), solidImage())
	require.NoError(t, err)
	require.True(t, len(ocr.received) > 2)
	assert.Equal(t, []byte{0xff, 0xd8}, ocr.received[:2])
	assert.Equal(t, domain.StatusUnknown, details.Status)
}

func TestExtractFailsAsUnitOnOCRError(t *testing.T) {
	llm := &structurerStub{}
	bridge := NewTextExtractionBridge(&ocrStub{err: errors.New("throttled")}, llm, TextExtractionOptions{}, nil)

	_, err := bridge.Extract(context.Background(), solidImage())
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.ErrExternalService))
	assert.Equal(t, 0, llm.calls)
}

func TestExtractFailsOnStructurerError(t *testing.T) {
	bridge := NewTextExtractionBridge(
		&ocrStub{lines: []domain.TextLine{{Text: "x"}}},
		&structurerStub{err: errors.New("schema mismatch")},
		TextExtractionOptions{},
		nil,
	)

	_, err := bridge.Extract(context.Background(), solidImage())
	assert.True(t, domain.IsKind(err, domain.ErrExternalService))
}

package usecase

import (
	"context"
	"image"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/shelf-inspector/internal/core/domain"
	"github.com/kirillkom/shelf-inspector/internal/core/ports"
	"github.com/kirillkom/shelf-inspector/internal/imaging"
)

type TextExtractionOptions struct {
	Preprocess  bool
	JPEGQuality int
	OCRTimeout  time.Duration
	LLMTimeout  time.Duration
}

// TextExtractionBridge reads label text with OCR and structures it with a
// language model. Either backend failing fails the whole extraction.
type TextExtractionBridge struct {
	ocr        ports.OCREngine
	structurer ports.ProductStructurer
	opts       TextExtractionOptions
	now        func() time.Time
	logger     *slog.Logger
}

func NewTextExtractionBridge(
	ocr ports.OCREngine,
	structurer ports.ProductStructurer,
	opts TextExtractionOptions,
	logger *slog.Logger,
) *TextExtractionBridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &TextExtractionBridge{
		ocr:        ocr,
		structurer: structurer,
		opts:       opts,
		now:        time.Now,
		logger:     logger,
	}
}

func (b *TextExtractionBridge) Extract(ctx context.Context, img image.Image) (domain.ProductDetails, error) {
	text, err := b.recognize(ctx, img)
	if err != nil {
		return domain.ProductDetails{}, err
	}

	llmCtx, cancel := withCallTimeout(ctx, b.opts.LLMTimeout)
	defer cancel()
	details, err := b.structurer.Structure(llmCtx, text)
	if err != nil {
		return domain.ProductDetails{}, domain.WrapError(domain.ErrExternalService, "structure product text", err)
	}

	details.Status = ExpiryStatusAt(details.ExpDate, b.now())
	b.logger.Info("product_details",
		"name", details.Name,
		"brand", details.Brand,
		"exp_date", details.ExpDate,
		"status", string(details.Status),
	)
	return details, nil
}

func (b *TextExtractionBridge) recognize(ctx context.Context, img image.Image) (string, error) {
	source := img
	if b.opts.Preprocess {
		source = imaging.Binarize(img)
	}
	payload, err := imaging.EncodeJPEG(source, b.opts.JPEGQuality)
	if err != nil {
		return "", err
	}

	ocrCtx, cancel := withCallTimeout(ctx, b.opts.OCRTimeout)
	defer cancel()
	lines, err := b.ocr.Recognize(ocrCtx, payload)
	if err != nil {
		return "", domain.WrapError(domain.ErrExternalService, "ocr", err)
	}

	text := JoinLines(lines)
	b.logger.Info("ocr_result", "lines", len(lines), "chars", len(text))
	return text, nil
}

// JoinLines concatenates recognized lines with single spaces in backend order.
func JoinLines(lines []domain.TextLine) string {
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		parts = append(parts, line.Text)
	}
	return strings.Join(parts, " ")
}

// expiryLayout is the only accepted exp_date form; day-first and
// month-first strings are ambiguous and yield NA.
const expiryLayout = "2006-01-02"

// ExpiryStatusAt classifies expDate relative to the calendar day of now. Any
// parse failure yields NA; it is never reported as an error.
func ExpiryStatusAt(expDate string, now time.Time) domain.ExpiryStatus {
	expiry, err := parseExpiryDate(expDate)
	if err != nil {
		return domain.StatusUnknown
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if expiry.Before(today) {
		return domain.StatusExpired
	}
	return domain.StatusNotExpired
}

func parseExpiryDate(value string) (time.Time, error) {
	parsed, err := time.Parse(expiryLayout, value)
	if err != nil {
		return time.Time{}, domain.WrapError(domain.ErrDateParse, "parse expiry date", err)
	}
	return parsed, nil
}

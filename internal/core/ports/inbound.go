package ports

import (
	"context"
	"image"
	"io"

	"github.com/kirillkom/shelf-inspector/internal/core/domain"
)

// ImageAnalyzer is the inbound contract for the decision pipeline.
type ImageAnalyzer interface {
	Analyze(ctx context.Context, img image.Image) (*domain.Analysis, error)
}

// ImageIngestor accepts images for asynchronous analysis.
type ImageIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Submission, error)
}

// SubmissionProcessor analyzes a previously stored submission and publishes
// the outcome.
type SubmissionProcessor interface {
	Process(ctx context.Context, submission domain.Submission) error
}

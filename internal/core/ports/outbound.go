package ports

import (
	"context"
	"image"
	"io"

	"github.com/kirillkom/shelf-inspector/internal/core/domain"
)

// ImageClassifier runs one image-classification model and returns predictions
// ranked by descending confidence.
type ImageClassifier interface {
	Classify(ctx context.Context, img image.Image) ([]domain.Prediction, error)
}

// FreshnessClassifier returns the probability of every freshness label, in
// catalog order.
type FreshnessClassifier interface {
	Probabilities(ctx context.Context, img image.Image) ([]float64, error)
}

// OCREngine recognizes text lines in an encoded image.
type OCREngine interface {
	Recognize(ctx context.Context, imageBytes []byte) ([]domain.TextLine, error)
}

// ProductStructurer turns raw label text into structured product fields.
// Status is left empty; it is derived by the caller.
type ProductStructurer interface {
	Structure(ctx context.Context, text string) (domain.ProductDetails, error)
}

// ObjectStorage stores uploaded images.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue carries submission and result events.
type MessageQueue interface {
	PublishImageSubmitted(ctx context.Context, submission domain.Submission) error
	SubscribeImageSubmitted(ctx context.Context, handler func(context.Context, domain.Submission) error) error
	PublishAnalysisResult(ctx context.Context, event domain.AnalysisEvent) error
}

// PipelineObserver receives pipeline telemetry. Implementations must be safe
// for concurrent use.
type PipelineObserver interface {
	ObserveStage(stage string, err error, seconds float64)
	ObservePath(path domain.AnalysisPath)
	ObserveFreshness(scale domain.FreshnessScale)
	ObserveExpiry(status domain.ExpiryStatus)
}

package usecase

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/kirillkom/shelf-inspector/internal/core/domain"
	"github.com/kirillkom/shelf-inspector/internal/core/ports"
	"github.com/kirillkom/shelf-inspector/internal/imaging"
)

type identifier interface {
	Identify(ctx context.Context, img image.Image) (domain.ClassificationResult, error)
}

type freshnessScorer interface {
	Score(ctx context.Context, img image.Image) (domain.FreshnessResult, error)
}

type productExtractor interface {
	Extract(ctx context.Context, img image.Image) (domain.ProductDetails, error)
}

// AnalyzeImageUseCase is the decision pipeline: identify the item, then
// either grade its freshness or read its label.
type AnalyzeImageUseCase struct {
	identifier identifier
	scorer     freshnessScorer
	extractor  productExtractor
	gate       float64
	observer   ports.PipelineObserver
	logger     *slog.Logger
}

func NewAnalyzeImageUseCase(
	identifier identifier,
	scorer freshnessScorer,
	extractor productExtractor,
	gate float64,
	observer ports.PipelineObserver,
	logger *slog.Logger,
) *AnalyzeImageUseCase {
	if observer == nil {
		observer = noopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyzeImageUseCase{
		identifier: identifier,
		scorer:     scorer,
		extractor:  extractor,
		gate:       gate,
		observer:   observer,
		logger:     logger,
	}
}

// Decide routes to the freshness path only for known items identified with
// confidence strictly above gate.
func Decide(identification domain.ClassificationResult, gate float64) domain.AnalysisPath {
	if identification.InKnownSet && identification.Confidence > gate {
		return domain.PathFreshness
	}
	return domain.PathText
}

func (uc *AnalyzeImageUseCase) Analyze(ctx context.Context, img image.Image) (*domain.Analysis, error) {
	rgb, err := imaging.ToRGB(img)
	if err != nil {
		return nil, err
	}

	var identification domain.ClassificationResult
	err = uc.stage("identify", func() error {
		identification, err = uc.identifier.Identify(ctx, rgb)
		return err
	})
	if err != nil {
		return nil, err
	}

	path := Decide(identification, uc.gate)
	uc.observer.ObservePath(path)
	uc.logger.Info("pipeline_branch",
		"path", string(path),
		"label", identification.Label,
		"confidence", identification.Confidence,
		"in_known_set", identification.InKnownSet,
	)

	trace := domain.AnalysisTrace{Identification: identification, Path: path}

	switch path {
	case domain.PathFreshness:
		var freshness domain.FreshnessResult
		err = uc.stage("freshness", func() error {
			freshness, err = uc.scorer.Score(ctx, rgb)
			return err
		})
		if err != nil {
			return nil, err
		}
		uc.observer.ObserveFreshness(freshness.Scale)
		trace.Freshness = &freshness
		return &domain.Analysis{Response: FreshnessResponse(freshness), Trace: trace}, nil

	case domain.PathText:
		var details domain.ProductDetails
		err = uc.stage("extract", func() error {
			details, err = uc.extractor.Extract(ctx, rgb)
			return err
		})
		if err != nil {
			return nil, err
		}
		uc.observer.ObserveExpiry(details.Status)
		trace.Product = &details
		return &domain.Analysis{Response: ProductResponse(details), Trace: trace}, nil

	default:
		return nil, fmt.Errorf("unhandled analysis path %q", path)
	}
}

func (uc *AnalyzeImageUseCase) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	uc.observer.ObserveStage(name, err, time.Since(start).Seconds())
	if err != nil {
		uc.logger.Error("pipeline_stage_failed", "stage", name, "error", err)
	}
	return err
}

// FreshnessResponse fills fields that only apply to packaged goods with NA.
func FreshnessResponse(result domain.FreshnessResult) domain.AnalysisResponse {
	return domain.AnalysisResponse{
		Name:     result.Label,
		Brand:    domain.NotAvailable,
		PackSize: domain.NotAvailable,
		MfgDate:  domain.NotAvailable,
		ExpDate:  domain.NotAvailable,
		MRP:      domain.NotAvailable,
		Status:   string(result.Scale),
	}
}

func ProductResponse(details domain.ProductDetails) domain.AnalysisResponse {
	return domain.AnalysisResponse{
		Name:     details.Name,
		Brand:    details.Brand,
		PackSize: details.PackSize,
		MfgDate:  details.MfgDate,
		ExpDate:  details.ExpDate,
		MRP:      details.MRP,
		Status:   string(details.Status),
	}
}

type noopObserver struct{}

func (noopObserver) ObserveStage(string, error, float64) {}

func (noopObserver) ObservePath(domain.AnalysisPath) {}

func (noopObserver) ObserveFreshness(domain.FreshnessScale) {}

func (noopObserver) ObserveExpiry(domain.ExpiryStatus) {}

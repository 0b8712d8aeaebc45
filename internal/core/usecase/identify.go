package usecase

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/kirillkom/shelf-inspector/internal/core/domain"
	"github.com/kirillkom/shelf-inspector/internal/core/ports"
)

// ObjectIdentifier resolves a fine-tuned closed-set classifier and a general
// open-vocabulary classifier into one identification.
type ObjectIdentifier struct {
	fineTuned   ports.ImageClassifier
	base        ports.ImageClassifier
	catalog     domain.Catalog
	normalizer  *LabelNormalizer
	callTimeout time.Duration
	logger      *slog.Logger
}

func NewObjectIdentifier(
	fineTuned ports.ImageClassifier,
	base ports.ImageClassifier,
	catalog domain.Catalog,
	callTimeout time.Duration,
	logger *slog.Logger,
) *ObjectIdentifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &ObjectIdentifier{
		fineTuned:   fineTuned,
		base:        base,
		catalog:     catalog,
		normalizer:  NewLabelNormalizer(catalog.Synonyms),
		callTimeout: callTimeout,
		logger:      logger,
	}
}

// Identify expects an image already normalized to 8-bit RGB.
func (id *ObjectIdentifier) Identify(ctx context.Context, img image.Image) (domain.ClassificationResult, error) {
	fineTuned, err := id.topPrediction(ctx, id.fineTuned, img, "fine-tuned classifier")
	if err != nil {
		return domain.ClassificationResult{}, err
	}

	base, err := id.topPrediction(ctx, id.base, img, "base classifier")
	if err != nil {
		return domain.ClassificationResult{}, err
	}
	base.Label = id.normalizer.Canonical(base.Label)

	result := ResolveEnsemble(fineTuned, base, id.catalog.WeightFactor, id.catalog)
	id.logger.Info("identify_result",
		"fine_tuned_label", fineTuned.Label,
		"fine_tuned_confidence", fineTuned.Confidence,
		"base_label", base.Label,
		"base_confidence", base.Confidence,
		"label", result.Label,
		"confidence", result.Confidence,
		"in_known_set", result.InKnownSet,
		"source", result.Source,
	)
	return result, nil
}

func (id *ObjectIdentifier) topPrediction(
	ctx context.Context,
	classifier ports.ImageClassifier,
	img image.Image,
	operation string,
) (domain.Prediction, error) {
	callCtx, cancel := withCallTimeout(ctx, id.callTimeout)
	defer cancel()

	predictions, err := classifier.Classify(callCtx, img)
	if err != nil {
		return domain.Prediction{}, domain.WrapError(domain.ErrInference, operation, err)
	}
	if len(predictions) == 0 {
		return domain.Prediction{}, domain.WrapError(domain.ErrInference, operation, errors.New("no predictions returned"))
	}
	top := predictions[0]
	if top.Confidence < 0 || top.Confidence > 1 {
		return domain.Prediction{}, domain.WrapError(
			domain.ErrInference,
			operation,
			fmt.Errorf("confidence %.4f outside [0,1]", top.Confidence),
		)
	}
	return top, nil
}

// ResolveEnsemble picks the base prediction only when its weighted confidence
// strictly exceeds the fine-tuned confidence. The reported confidence is the
// winner's unweighted value.
func ResolveEnsemble(fineTuned, base domain.Prediction, weight float64, catalog domain.Catalog) domain.ClassificationResult {
	winner := domain.ClassificationResult{
		Label:      fineTuned.Label,
		Confidence: fineTuned.Confidence,
		Source:     domain.SourceFineTuned,
	}
	if base.Confidence*weight > fineTuned.Confidence {
		winner = domain.ClassificationResult{
			Label:      base.Label,
			Confidence: base.Confidence,
			Source:     domain.SourceBase,
		}
	}
	winner.InKnownSet = catalog.IsKnown(winner.Label)
	return winner
}

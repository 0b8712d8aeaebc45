package usecase

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/kirillkom/shelf-inspector/internal/core/domain"
	"github.com/kirillkom/shelf-inspector/internal/core/ports"
)

// FreshnessScorer grades produce using the freshness classifier's full
// probability distribution.
type FreshnessScorer struct {
	classifier  ports.FreshnessClassifier
	labels      []string
	callTimeout time.Duration
	logger      *slog.Logger
}

func NewFreshnessScorer(
	classifier ports.FreshnessClassifier,
	labels []string,
	callTimeout time.Duration,
	logger *slog.Logger,
) *FreshnessScorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &FreshnessScorer{
		classifier:  classifier,
		labels:      append([]string(nil), labels...),
		callTimeout: callTimeout,
		logger:      logger,
	}
}

func (s *FreshnessScorer) Score(ctx context.Context, img image.Image) (domain.FreshnessResult, error) {
	callCtx, cancel := withCallTimeout(ctx, s.callTimeout)
	defer cancel()

	probs, err := s.classifier.Probabilities(callCtx, img)
	if err != nil {
		return domain.FreshnessResult{}, domain.WrapError(domain.ErrInference, "freshness classifier", err)
	}

	result, err := ScoreDistribution(s.labels, probs)
	if err != nil {
		return domain.FreshnessResult{}, domain.WrapError(domain.ErrInference, "freshness classifier", err)
	}

	s.logger.Info("freshness_result",
		"label", result.Label,
		"raw_probability", result.RawProbability,
		"adjusted_probability", result.AdjustedProbability,
		"scale", string(result.Scale),
	)
	return result, nil
}

// ScoreDistribution derives a FreshnessResult from per-label probabilities
// given as fractions in [0,1], in the same order as labels.
func ScoreDistribution(labels []string, probs []float64) (domain.FreshnessResult, error) {
	if len(labels) == 0 {
		return domain.FreshnessResult{}, fmt.Errorf("empty freshness label set")
	}
	if len(probs) != len(labels) {
		return domain.FreshnessResult{}, fmt.Errorf("probability count %d does not match label count %d", len(probs), len(labels))
	}

	top := 0
	for i, p := range probs {
		if p > probs[top] {
			top = i
		}
	}

	var (
		freshSum, rottenSum float64
		freshMax, rottenMax float64
	)
	for i, label := range labels {
		pct := probs[i] * 100
		switch freshnessState(label) {
		case domain.StateFresh:
			freshSum += pct
			freshMax = math.Max(freshMax, pct)
		case domain.StateRotten:
			rottenSum += pct
			rottenMax = math.Max(rottenMax, pct)
		}
	}

	var adjusted float64
	switch freshnessState(labels[top]) {
	case domain.StateFresh:
		adjusted = freshMax - rottenSum
	case domain.StateRotten:
		adjusted = 100 - rottenMax - freshSum
	default:
		return domain.FreshnessResult{}, fmt.Errorf("label %q has no freshness state prefix", labels[top])
	}
	adjusted = ClampPercent(adjusted)

	return domain.FreshnessResult{
		Label:               labels[top],
		RawProbability:      probs[top] * 100,
		AdjustedProbability: adjusted,
		Scale:               ScaleFor(adjusted),
	}, nil
}

// ClampPercent bounds p to [0,100]; NaN maps to 0.
func ClampPercent(p float64) float64 {
	switch {
	case math.IsNaN(p), p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

// ScaleFor maps an adjusted probability to a grade. Ranges include their
// lower bound; the top range also includes 100.
func ScaleFor(p float64) domain.FreshnessScale {
	switch {
	case p >= 90 && p <= 100:
		return domain.ScaleSuperFresh
	case p >= 80 && p < 90:
		return domain.ScaleFresh
	case p >= 60 && p < 80:
		return domain.ScaleMediumFresh
	case p >= 40 && p < 60:
		return domain.ScaleStale
	default:
		return domain.ScaleRotten
	}
}

func freshnessState(label string) string {
	switch {
	case strings.HasPrefix(label, domain.StateFresh):
		return domain.StateFresh
	case strings.HasPrefix(label, domain.StateRotten):
		return domain.StateRotten
	default:
		return ""
	}
}

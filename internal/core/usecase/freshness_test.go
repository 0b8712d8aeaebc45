package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirillkom/shelf-inspector/internal/core/domain"
)

func TestScaleForBoundaries(t *testing.T) {
	cases := map[float64]domain.FreshnessScale{
		100:    domain.ScaleSuperFresh,
		95:     domain.ScaleSuperFresh,
		90:     domain.ScaleSuperFresh,
		89.999: domain.ScaleFresh,
		80:     domain.ScaleFresh,
		79.999: domain.ScaleMediumFresh,
		60:     domain.ScaleMediumFresh,
		59.999: domain.ScaleStale,
		40:     domain.ScaleStale,
		39.999: domain.ScaleRotten,
		0:      domain.ScaleRotten,
	}
	for p, want := range cases {
		assert.Equal(t, want, ScaleFor(p), "p=%v", p)
	}
}

func TestScaleForPartitionsRangeInOrder(t *testing.T) {
	rank := map[domain.FreshnessScale]int{}
	for i, scale := range domain.FreshnessScales {
		rank[scale] = i
	}

	prev := rank[ScaleFor(100)]
	for p := 100.0; p >= 0; p -= 0.125 {
		scale := ScaleFor(p)
		r, ok := rank[scale]
		require.True(t, ok, "unknown scale %q at p=%v", scale, p)
		assert.GreaterOrEqual(t, r, prev, "scale must not improve as p decreases (p=%v)", p)
		prev = r
	}
}

func TestScoreDistributionFreshPrediction(t *testing.T) {
	labels := []string{"FreshApple", "RottenApple", "FreshBanana", "RottenBanana"}
	got, err := ScoreDistribution(labels, []float64{0.9, 0.05, 0.03, 0.02})
	require.NoError(t, err)

	assert.Equal(t, "FreshApple", got.Label)
	assert.InDelta(t, 90, got.RawProbability, 1e-9)
	assert.InDelta(t, 83, got.AdjustedProbability, 1e-9)
	assert.Equal(t, domain.ScaleFresh, got.Scale)
}

func TestScoreDistributionRottenPrediction(t *testing.T) {
	labels := []string{"FreshApple", "RottenApple", "FreshBanana", "RottenBanana"}
	got, err := ScoreDistribution(labels, []float64{0.05, 0.8, 0.05, 0.1})
	require.NoError(t, err)

	assert.Equal(t, "RottenApple", got.Label)
	assert.InDelta(t, 80, got.RawProbability, 1e-9)
	assert.InDelta(t, 10, got.AdjustedProbability, 1e-9)
	assert.Equal(t, domain.ScaleRotten, got.Scale)
}

func TestScoreDistributionClampsAdjustedProbability(t *testing.T) {
	t.Run("below zero", func(t *testing.T) {
		labels := []string{"FreshApple", "RottenApple", "RottenBanana"}
		got, err := ScoreDistribution(labels, []float64{0.34, 0.33, 0.33})
		require.NoError(t, err)
		assert.Equal(t, 0.0, got.AdjustedProbability)
		assert.Equal(t, domain.ScaleRotten, got.Scale)
	})

	t.Run("above hundred", func(t *testing.T) {
		labels := []string{"FreshApple", "RottenApple"}
		got, err := ScoreDistribution(labels, []float64{1.5, 0})
		require.NoError(t, err)
		assert.Equal(t, 100.0, got.AdjustedProbability)
		assert.Equal(t, domain.ScaleSuperFresh, got.Scale)
	})

	t.Run("rotten path above hundred", func(t *testing.T) {
		labels := []string{"FreshApple", "RottenApple"}
		got, err := ScoreDistribution(labels, []float64{-0.6, 0.2})
		require.NoError(t, err)
		assert.Equal(t, 100.0, got.AdjustedProbability)
	})
}

func TestScoreDistributionRejectsMismatchedOutput(t *testing.T) {
	_, err := ScoreDistribution([]string{"FreshApple", "RottenApple"}, []float64{1})
	assert.Error(t, err)

	_, err = ScoreDistribution([]string{"Apple"}, []float64{1})
	assert.Error(t, err)
}

func TestFreshnessScorerWrapsFailuresAsInferenceErrors(t *testing.T) {
	scorer := NewFreshnessScorer(&freshnessStub{err: errors.New("oom")}, testCatalog().FreshnessLabels, 0, nil)
	_, err := scorer.Score(context.Background(), solidImage())
	assert.True(t, domain.IsKind(err, domain.ErrInference))

	scorer = NewFreshnessScorer(&freshnessStub{probs: []float64{1}}, testCatalog().FreshnessLabels, 0, nil)
	_, err = scorer.Score(context.Background(), solidImage())
	assert.True(t, domain.IsKind(err, domain.ErrInference))
}

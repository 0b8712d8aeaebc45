package onnx

import (
	"context"
	"fmt"
	"image"

	"github.com/kirillkom/shelf-inspector/internal/core/domain"
)

type scorer interface {
	Scores(ctx context.Context, img image.Image) ([]float32, error)
	Metadata() Metadata
}

// Classifier exposes a model as a ranked image classifier.
type Classifier struct {
	model scorer
}

func NewClassifier(model scorer) *Classifier {
	return &Classifier{model: model}
}

func (c *Classifier) Classify(ctx context.Context, img image.Image) ([]domain.Prediction, error) {
	scores, err := c.model.Scores(ctx, img)
	if err != nil {
		return nil, err
	}
	return Rank(c.model.Metadata().Classes, scores), nil
}

// FreshnessClassifier exposes the freshness model's full distribution in
// catalog label order.
type FreshnessClassifier struct {
	model scorer
	index []int
}

// NewFreshnessClassifier maps catalog labels onto model output positions and
// fails if any label is missing from the model.
func NewFreshnessClassifier(model scorer, labels []string) (*FreshnessClassifier, error) {
	positions := make(map[string]int, len(model.Metadata().Classes))
	for i, class := range model.Metadata().Classes {
		positions[class] = i
	}
	index := make([]int, len(labels))
	for i, label := range labels {
		pos, ok := positions[label]
		if !ok {
			return nil, fmt.Errorf("freshness label %q is not produced by the model", label)
		}
		index[i] = pos
	}
	return &FreshnessClassifier{model: model, index: index}, nil
}

func (c *FreshnessClassifier) Probabilities(ctx context.Context, img image.Image) ([]float64, error) {
	scores, err := c.model.Scores(ctx, img)
	if err != nil {
		return nil, err
	}
	probs := make([]float64, len(c.index))
	for i, pos := range c.index {
		if pos >= len(scores) {
			return nil, fmt.Errorf("model returned %d scores, label index %d out of range", len(scores), pos)
		}
		probs[i] = float64(scores[pos])
	}
	return probs, nil
}

// NewCatalogClassifier is NewClassifier for a closed-set model whose classes
// must match the catalog's, in any order.
func NewCatalogClassifier(model scorer, classes []string) (*Classifier, error) {
	produced := make(map[string]bool, len(model.Metadata().Classes))
	for _, class := range model.Metadata().Classes {
		produced[class] = true
	}
	expected := make(map[string]bool, len(classes))
	for _, class := range classes {
		expected[class] = true
		if !produced[class] {
			return nil, fmt.Errorf("catalog class %q is not produced by the model", class)
		}
	}
	for class := range produced {
		if !expected[class] {
			return nil, fmt.Errorf("model class %q is missing from the catalog", class)
		}
	}
	return NewClassifier(model), nil
}

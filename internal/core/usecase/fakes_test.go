package usecase

import (
	"context"
	"image"
	"sync"

	"github.com/kirillkom/shelf-inspector/internal/core/domain"
)

func testCatalog() domain.Catalog {
	return domain.Catalog{
		FineTunedClasses: []string{"Apple", "Carrot", "FMCG", "Grape", "Guava", "Ladyfinger", "Mango", "Potato", "Tomato"},
		KnownSet: []string{
			"Apple", "Banana", "Grape", "Guava", "Mango", "Orange", "Pomegranate",
			"Strawberry", "Capsicum", "Carrot", "Cucumber", "Ladyfinger", "Potato", "Tomato",
		},
		Synonyms:        map[string]string{"bell pepper": "Capsicum"},
		FreshnessLabels: []string{"FreshApple", "FreshBanana", "RottenApple", "RottenBanana"},
		WeightFactor:    1.2,
		FreshnessGate:   0.95,
	}
}

type classifierStub struct {
	mu          sync.Mutex
	predictions []domain.Prediction
	err         error
	calls       int
}

func (s *classifierStub) Classify(context.Context, image.Image) ([]domain.Prediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.predictions, nil
}

type freshnessStub struct {
	probs []float64
	err   error
	calls int
}

func (s *freshnessStub) Probabilities(context.Context, image.Image) ([]float64, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.probs, nil
}

type ocrStub struct {
	lines    []domain.TextLine
	err      error
	received []byte
}

func (s *ocrStub) Recognize(_ context.Context, imageBytes []byte) ([]domain.TextLine, error) {
	s.received = imageBytes
	if s.err != nil {
		return nil, s.err
	}
	return s.lines, nil
}

type structurerStub struct {
	details domain.ProductDetails
	err     error
	text    string
	calls   int
}

func (s *structurerStub) Structure(_ context.Context, text string) (domain.ProductDetails, error) {
	s.calls++
	s.text = text
	if s.err != nil {
		return domain.ProductDetails{}, s.err
	}
	return s.details, nil
}

func solidImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 4, 4))
}

package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/kirillkom/shelf-inspector/internal/core/domain"
)

// Engine recognizes label text with a local Tesseract install. A fresh
// client is created per call since gosseract clients are not goroutine-safe.
type Engine struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

func NewEngine(languages ...string) *Engine {
	return &Engine{languages: languages, clientFactory: gosseract.NewClient}
}

func (e *Engine) Name() string { return "tesseract" }

// Recognize returns text lines in reading order. Tesseract cannot be
// interrupted, so a cancelled ctx only stops the wait.
func (e *Engine) Recognize(ctx context.Context, imageBytes []byte) ([]domain.TextLine, error) {
	type outcome struct {
		lines []domain.TextLine
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		lines, err := e.recognize(imageBytes)
		done <- outcome{lines: lines, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("tesseract: %w", ctx.Err())
	case out := <-done:
		return out.lines, out.err
	}
}

func (e *Engine) recognize(imageBytes []byte) ([]domain.TextLine, error) {
	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(imageBytes); err != nil {
		return nil, fmt.Errorf("tesseract: set image: %w", err)
	}
	if len(e.languages) > 0 {
		if err := c.SetLanguage(e.languages...); err != nil {
			return nil, fmt.Errorf("tesseract: set languages: %w", err)
		}
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err == nil && len(boxes) > 0 {
		return linesFromBoxes(boxes), nil
	}

	text, err := c.Text()
	if err != nil {
		return nil, fmt.Errorf("tesseract: recognize text: %w", err)
	}
	return linesFromText(text), nil
}

func linesFromBoxes(boxes []gosseract.BoundingBox) []domain.TextLine {
	lines := make([]domain.TextLine, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		lines = append(lines, domain.TextLine{Text: text, Confidence: b.Confidence / 100.0})
	}
	return lines
}

// linesFromText is used when layout analysis yields no boxes; confidence is
// unknown there.
func linesFromText(text string) []domain.TextLine {
	var lines []domain.TextLine
	for _, raw := range strings.Split(text, "\n") {
		if line := strings.TrimSpace(raw); line != "" {
			lines = append(lines, domain.TextLine{Text: line})
		}
	}
	return lines
}

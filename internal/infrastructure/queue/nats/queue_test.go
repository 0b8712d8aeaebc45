package nats

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/shelf-inspector/internal/core/domain"
)

func TestDecodeSubmission(t *testing.T) {
	submission, err := decodeSubmission([]byte(`{"id":"sub-1","filename":"a.jpg","storage_key":"sub-1_a.jpg"}`))
	if err != nil {
		t.Fatalf("decodeSubmission() error = %v", err)
	}
	if submission.ID != "sub-1" || submission.StorageKey != "sub-1_a.jpg" {
		t.Fatalf("unexpected submission: %+v", submission)
	}

	if _, err := decodeSubmission([]byte(`{"filename":"a.jpg"}`)); err == nil {
		t.Fatalf("expected error for missing id")
	}
	if _, err := decodeSubmission([]byte(`sub-1`)); err == nil {
		t.Fatalf("expected error for non-json payload")
	}
}

func TestWrapTemporaryIfNeeded(t *testing.T) {
	err := wrapTemporaryIfNeeded(fmt.Errorf("publish: %w", nats.ErrConnectionClosed))
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected closed connection to be temporary, got %v", err)
	}

	err = wrapTemporaryIfNeeded(errors.New("bad subject"))
	if domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected permanent error to stay permanent")
	}

	if class := classifyNATSError(context.Canceled); class.Retryable || class.RecordFailure {
		t.Fatalf("expected cancellation to be ignored, got %+v", class)
	}
}

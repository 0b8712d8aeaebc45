package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/shelf-inspector/internal/core/domain"
	"github.com/kirillkom/shelf-inspector/internal/core/ports"
)

type IngestImageUseCase struct {
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewIngestImageUseCase(storage ports.ObjectStorage, queue ports.MessageQueue) *IngestImageUseCase {
	return &IngestImageUseCase{
		storage: storage,
		queue:   queue,
	}
}

func (uc *IngestImageUseCase) Upload(
	ctx context.Context,
	filename, mimeType string,
	body io.Reader,
) (*domain.Submission, error) {
	if mimeType != "" && !strings.HasPrefix(mimeType, "image/") && mimeType != "application/octet-stream" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload image", fmt.Errorf("unsupported content type %q", mimeType))
	}

	id := uuid.NewString()
	submission := &domain.Submission{
		ID:         id,
		Filename:   filename,
		MimeType:   mimeType,
		StorageKey: fmt.Sprintf("%s_%s", id, sanitizeFilename(filename)),
		CreatedAt:  time.Now().UTC(),
	}

	if err := uc.storage.Save(ctx, submission.StorageKey, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	if err := uc.queue.PublishImageSubmitted(ctx, *submission); err != nil {
		return nil, fmt.Errorf("publish submission event: %w", err)
	}

	return submission, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "image.bin"
	}
	return base
}

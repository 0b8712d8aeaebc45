package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/kirillkom/shelf-inspector/internal/core/domain"
	"github.com/kirillkom/shelf-inspector/internal/core/ports"
	"github.com/kirillkom/shelf-inspector/internal/imaging"
)

// ProcessSubmissionUseCase analyzes a stored upload and publishes exactly one
// result event for it, carrying either the response or the failure message.
type ProcessSubmissionUseCase struct {
	storage  ports.ObjectStorage
	analyzer ports.ImageAnalyzer
	queue    ports.MessageQueue
	now      func() time.Time
}

func NewProcessSubmissionUseCase(
	storage ports.ObjectStorage,
	analyzer ports.ImageAnalyzer,
	queue ports.MessageQueue,
) *ProcessSubmissionUseCase {
	return &ProcessSubmissionUseCase{
		storage:  storage,
		analyzer: analyzer,
		queue:    queue,
		now:      time.Now,
	}
}

func (uc *ProcessSubmissionUseCase) Process(ctx context.Context, submission domain.Submission) error {
	analysis, processErr := uc.analyze(ctx, submission)

	event := domain.AnalysisEvent{
		SubmissionID: submission.ID,
		ProcessedAt:  uc.now().UTC(),
	}
	if processErr != nil {
		event.Error = processErr.Error()
	} else {
		event.Response = &analysis.Response
	}

	if err := uc.queue.PublishAnalysisResult(ctx, event); err != nil {
		if processErr != nil {
			return fmt.Errorf("%w; publish analysis result: %v", processErr, err)
		}
		return fmt.Errorf("publish analysis result: %w", err)
	}
	return processErr
}

func (uc *ProcessSubmissionUseCase) analyze(ctx context.Context, submission domain.Submission) (*domain.Analysis, error) {
	if submission.StorageKey == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "process submission", fmt.Errorf("submission %s has no storage key", submission.ID))
	}

	reader, err := uc.storage.Open(ctx, submission.StorageKey)
	if err != nil {
		return nil, domain.WrapError(domain.ErrSubmissionNotFound, "open submission", err)
	}
	defer reader.Close()

	img, _, err := imaging.Decode(reader)
	if err != nil {
		return nil, err
	}

	analysis, err := uc.analyzer.Analyze(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("analyze submission %s: %w", submission.ID, err)
	}
	return analysis, nil
}

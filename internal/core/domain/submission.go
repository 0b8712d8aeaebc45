package domain

import "time"

// Submission is an image accepted for asynchronous analysis.
type Submission struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	MimeType   string    `json:"mime_type"`
	StorageKey string    `json:"storage_key"`
	CreatedAt  time.Time `json:"created_at"`
}

// AnalysisEvent is published once a submission has been processed.
type AnalysisEvent struct {
	SubmissionID string            `json:"submission_id"`
	Response     *AnalysisResponse `json:"response,omitempty"`
	Error        string            `json:"error,omitempty"`
	ProcessedAt  time.Time         `json:"processed_at"`
}

package domain

import "time"

type SubmissionStatus string

const (
	SubmissionReceived   SubmissionStatus = "received"
	SubmissionProcessing SubmissionStatus = "processing"
	SubmissionDrafted    SubmissionStatus = "drafted"
	SubmissionFailed     SubmissionStatus = "failed"
)

// Submission tracks one uploaded application through the pipeline. It
// is bookkeeping for the worker, not a decision record: a failed run
// leaves a failed Submission and no Draft.
type Submission struct {
	ID          string           `json:"id"`
	Filename    string           `json:"filename"`
	MediaType   string           `json:"media_type"`
	StoragePath string           `json:"storage_path"`
	Status      SubmissionStatus `json:"status"`
	Error       string           `json:"error,omitempty"`
	DraftID     string           `json:"draft_id,omitempty"`
	ReceivedAt  time.Time        `json:"received_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

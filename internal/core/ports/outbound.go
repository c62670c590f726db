package ports

import (
	"context"
	"io"

	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/domain"
)

// SubmissionRepository persists and reads submission state.
type SubmissionRepository interface {
	Create(ctx context.Context, sub *domain.Submission) error
	GetByID(ctx context.Context, id string) (*domain.Submission, error)
	UpdateStatus(ctx context.Context, id string, status domain.SubmissionStatus, errMessage string) error
	SetDraft(ctx context.Context, id, draftID string) error
}

// DraftRepository persists decision drafts and enforces the review
// state machine. Approve/Reject only move pending drafts; terminal
// drafts stay as decided.
type DraftRepository interface {
	Create(ctx context.Context, draft *domain.Draft) error
	GetByID(ctx context.Context, id string) (*domain.Draft, error)
	List(ctx context.Context, state domain.DraftState) ([]domain.Draft, error)
	Approve(ctx context.Context, id string) (*domain.Draft, error)
	Reject(ctx context.Context, id, reason string) (*domain.Draft, error)
	PurgeAll(ctx context.Context) (int, error)
}

// ObjectStorage stores source applications and rendered output copies.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishSubmissionReceived(ctx context.Context, submissionID string) error
	SubscribeSubmissionReceived(ctx context.Context, handler func(context.Context, string) error) error
}

// FieldExtractor reads structured application fields out of a raw document.
type FieldExtractor interface {
	Extract(ctx context.Context, doc domain.RawDocument) (domain.ExtractedFields, error)
}

// ExtractionCache stores extraction results keyed by content fingerprint.
type ExtractionCache interface {
	Get(ctx context.Context, fingerprint string) (domain.ExtractedFields, bool, error)
	Put(ctx context.Context, fingerprint string, fields domain.ExtractedFields) error
	Clear(ctx context.Context) (int, error)
}

// ChatModel is the remote model endpoint used for field extraction.
type ChatModel interface {
	CompleteText(ctx context.Context, prompt string) (string, error)
	CompleteVision(ctx context.Context, prompt string, image []byte, mediaType string) (string, error)
	ModelID(m domain.Modality) string
}

// DocumentRenderer turns extracted fields plus an assessed fee into
// the permit and payment artifacts.
type DocumentRenderer interface {
	Render(ctx context.Context, draft *domain.Draft) (domain.DocumentBundle, error)
}

// RegisterWriter serializes drafts into an accounting register file.
type RegisterWriter interface {
	WriteRegister(drafts []domain.Draft) ([]byte, error)
}

// ClerkNotifier announces a freshly created draft to the responsible
// clerk. Best effort: failures are logged, never fatal.
type ClerkNotifier interface {
	NotifyDraftCreated(ctx context.Context, draft *domain.Draft) error
}

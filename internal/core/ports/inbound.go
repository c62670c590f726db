package ports

import (
	"context"
	"io"

	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/domain"
)

// ApplicationIngestor is the inbound contract for application upload orchestration.
type ApplicationIngestor interface {
	Upload(ctx context.Context, filename, mediaType string, body io.Reader) (*domain.Submission, error)
}

// ApplicationProcessor is the inbound contract for asynchronous pipeline runs.
type ApplicationProcessor interface {
	ProcessSubmission(ctx context.Context, submissionID string) error
}

// SubmissionReader is the inbound read model for submission state.
type SubmissionReader interface {
	GetByID(ctx context.Context, id string) (*domain.Submission, error)
}

// DraftReviewer is the inbound contract for the clerk review workflow.
type DraftReviewer interface {
	List(ctx context.Context, state domain.DraftState) ([]domain.Draft, error)
	Get(ctx context.Context, id string) (*domain.Draft, error)
	Approve(ctx context.Context, id string) (*domain.Draft, error)
	Reject(ctx context.Context, id, reason string) (*domain.Draft, error)
	PurgeAll(ctx context.Context) (int, error)
	Artifact(ctx context.Context, draftID string, kind domain.ArtifactKind) (*domain.Artifact, error)
}

// RegisterExporter produces the accounting fee register.
type RegisterExporter interface {
	ExportRegister(ctx context.Context) (data []byte, filename string, err error)
}

// CacheMaintainer clears persisted extraction results.
type CacheMaintainer interface {
	ClearExtractionCache(ctx context.Context) (int, error)
}

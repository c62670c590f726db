package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/domain"
	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/fee"
	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/ports"
)

// ProcessStats receives pipeline outcomes. Implemented by the
// Prometheus pipeline metrics; nil disables reporting.
type ProcessStats interface {
	DraftCreated(needsReview bool)
}

type ProcessApplicationUseCase struct {
	submissions ports.SubmissionRepository
	drafts      ports.DraftRepository
	storage     ports.ObjectStorage
	extractor   ports.FieldExtractor
	renderer    ports.DocumentRenderer
	notifier    ports.ClerkNotifier
	logger      *slog.Logger
	stats       ProcessStats
	rate        float64
	now         func() time.Time
}

type ProcessOptions struct {
	// Notifier is optional; drafts are created regardless of whether a
	// clerk can be reached.
	Notifier ports.ClerkNotifier
	Logger   *slog.Logger
	Stats    ProcessStats
	// RateCZKPerM2Day overrides the statutory default rate.
	RateCZKPerM2Day float64
	Now             func() time.Time
}

func NewProcessApplicationUseCase(
	submissions ports.SubmissionRepository,
	drafts ports.DraftRepository,
	storage ports.ObjectStorage,
	extractor ports.FieldExtractor,
	renderer ports.DocumentRenderer,
	options ProcessOptions,
) *ProcessApplicationUseCase {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rate := options.RateCZKPerM2Day
	if rate <= 0 {
		rate = fee.DefaultRateCZKPerM2Day
	}
	now := options.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &ProcessApplicationUseCase{
		submissions: submissions,
		drafts:      drafts,
		storage:     storage,
		extractor:   extractor,
		renderer:    renderer,
		notifier:    options.Notifier,
		logger:      logger,
		stats:       options.Stats,
		rate:        rate,
		now:         now,
	}
}

// ProcessSubmission is the queue-driven entry: it loads the stored
// upload, drives the pipeline, and advances the submission status
// (processing, then drafted or failed).
func (uc *ProcessApplicationUseCase) ProcessSubmission(ctx context.Context, submissionID string) error {
	if err := uc.markStatus(ctx, submissionID, domain.SubmissionProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	draft, err := uc.runStored(ctx, submissionID)
	if err != nil {
		if failErr := uc.markFailed(ctx, submissionID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.linkDraft(ctx, submissionID, draft.ID); err != nil {
		if failErr := uc.markFailed(ctx, submissionID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.markStatus(ctx, submissionID, domain.SubmissionDrafted, ""); err != nil {
		return fmt.Errorf("set status=drafted: %w", err)
	}

	return nil
}

// Process runs the pipeline for one raw application. Extraction and
// render failures abort with no draft. Fee-stage failures do not: the
// paid extraction survives as a pending draft flagged for review,
// with no fee and no artifacts.
func (uc *ProcessApplicationUseCase) Process(ctx context.Context, doc domain.RawDocument) (*domain.Draft, error) {
	fields, err := uc.extractFields(ctx, doc)
	if err != nil {
		return nil, err
	}

	draft := uc.newDraft(doc, fields)
	uc.assessFee(draft)

	if !draft.NeedsReview {
		if err := uc.renderDocuments(ctx, draft); err != nil {
			return nil, err
		}
		uc.copyArtifacts(ctx, draft)
	}

	if err := uc.createDraft(ctx, draft); err != nil {
		return nil, err
	}

	uc.notifyClerk(ctx, draft)

	return draft, nil
}

func (uc *ProcessApplicationUseCase) runStored(ctx context.Context, submissionID string) (*domain.Draft, error) {
	sub, err := uc.loadSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	doc, err := uc.loadDocument(ctx, sub)
	if err != nil {
		return nil, err
	}

	return uc.Process(ctx, doc)
}

func (uc *ProcessApplicationUseCase) loadSubmission(ctx context.Context, submissionID string) (*domain.Submission, error) {
	sub, err := uc.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("fetch submission by id: %w", err)
	}
	return sub, nil
}

func (uc *ProcessApplicationUseCase) loadDocument(ctx context.Context, sub *domain.Submission) (domain.RawDocument, error) {
	rc, err := uc.storage.Open(ctx, sub.StoragePath)
	if err != nil {
		return domain.RawDocument{}, fmt.Errorf("open stored upload: %w", err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return domain.RawDocument{}, fmt.Errorf("read stored upload: %w", err)
	}

	return domain.RawDocument{
		Content:    content,
		MediaType:  sub.MediaType,
		Filename:   sub.Filename,
		ReceivedAt: sub.ReceivedAt,
	}, nil
}

func (uc *ProcessApplicationUseCase) extractFields(ctx context.Context, doc domain.RawDocument) (domain.ExtractedFields, error) {
	fields, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return domain.ExtractedFields{}, fmt.Errorf("extract fields: %w", err)
	}
	return fields, nil
}

func (uc *ProcessApplicationUseCase) newDraft(doc domain.RawDocument, fields domain.ExtractedFields) *domain.Draft {
	return &domain.Draft{
		ID:             domain.NewDraftID(doc.Filename, doc.ReceivedAt),
		State:          domain.DraftPending,
		Fields:         fields,
		SourceFilename: doc.Filename,
		CreatedAt:      uc.now(),
	}
}

// assessFee runs the fee stage in place. Failures here never abort the
// run; the draft degrades to manual review with the reason recorded.
func (uc *ProcessApplicationUseCase) assessFee(draft *domain.Draft) {
	if reason, ok := notAnApplication(draft.Fields); ok {
		draft.NeedsReview = true
		draft.ReviewReason = reason
		return
	}

	if missing := draft.Fields.MissingRequired(); len(missing) > 0 {
		draft.NeedsReview = true
		draft.ReviewReason = "missing fields: " + strings.Join(missing, ", ")
		return
	}

	assessment, err := fee.Compute(*draft.Fields.AreaM2, *draft.Fields.StartDate, *draft.Fields.EndDate, uc.rate)
	if err != nil {
		draft.NeedsReview = true
		draft.ReviewReason = "fee assessment rejected: " + err.Error()
		return
	}

	assessment.VariableSymbol = domain.VariableSymbolFor(draft.ID)
	draft.Fee = &assessment
}

// notAnApplication tells a wrong document type apart from an
// incomplete application, so the clerk sees the right review reason.
func notAnApplication(fields domain.ExtractedFields) (string, bool) {
	raw := strings.ToLower(string(fields.RawResponse))
	if strings.Contains(raw, "not a zuvp") || strings.Contains(raw, "neni zuvp") || strings.Contains(raw, "není zuvp") {
		return "document is not a public-space-use application", true
	}
	if fields.Empty() {
		return "no recognizable application fields found", true
	}
	return "", false
}

func (uc *ProcessApplicationUseCase) renderDocuments(ctx context.Context, draft *domain.Draft) error {
	bundle, err := uc.renderer.Render(ctx, draft)
	if err != nil {
		return fmt.Errorf("render documents: %w", err)
	}
	draft.Bundle = bundle
	return nil
}

// copyArtifacts writes rendered documents into object storage under
// the draft's output prefix. Best effort: the bundle in the draft row
// is authoritative, copies are a convenience for clerks.
func (uc *ProcessApplicationUseCase) copyArtifacts(ctx context.Context, draft *domain.Draft) {
	for i := range draft.Bundle {
		artifact := &draft.Bundle[i]
		key := fmt.Sprintf("outputs/%s/%s", draft.ID, artifact.Filename)
		if err := uc.storage.Save(ctx, key, bytes.NewReader(artifact.Content)); err != nil {
			uc.logger.Warn("pipeline.artifact_copy_failed",
				"draft_id", draft.ID, "artifact", artifact.Filename, "error", err)
			continue
		}
		artifact.Path = key
	}
}

func (uc *ProcessApplicationUseCase) createDraft(ctx context.Context, draft *domain.Draft) error {
	if err := uc.drafts.Create(ctx, draft); err != nil {
		return fmt.Errorf("create draft: %w", err)
	}
	if uc.stats != nil {
		uc.stats.DraftCreated(draft.NeedsReview)
	}
	return nil
}

func (uc *ProcessApplicationUseCase) notifyClerk(ctx context.Context, draft *domain.Draft) {
	if uc.notifier == nil {
		return
	}
	if err := uc.notifier.NotifyDraftCreated(ctx, draft); err != nil {
		uc.logger.Warn("pipeline.notify_failed", "draft_id", draft.ID, "error", err)
	}
}

func (uc *ProcessApplicationUseCase) linkDraft(ctx context.Context, submissionID, draftID string) error {
	if err := uc.submissions.SetDraft(ctx, submissionID, draftID); err != nil {
		return fmt.Errorf("link draft to submission: %w", err)
	}
	return nil
}

func (uc *ProcessApplicationUseCase) markStatus(ctx context.Context, submissionID string, status domain.SubmissionStatus, errMessage string) error {
	return uc.submissions.UpdateStatus(ctx, submissionID, status, errMessage)
}

func (uc *ProcessApplicationUseCase) markFailed(ctx context.Context, submissionID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	return uc.markStatus(ctx, submissionID, domain.SubmissionFailed, processErr.Error())
}

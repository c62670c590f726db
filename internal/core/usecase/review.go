package usecase

import (
	"context"
	"fmt"

	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/domain"
	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/ports"
)

// ReviewDraftUseCase is the clerk-facing surface of the draft store.
// Transition legality lives in the repository; this layer validates
// input and keeps wrapping consistent.
type ReviewDraftUseCase struct {
	drafts ports.DraftRepository
}

func NewReviewDraftUseCase(drafts ports.DraftRepository) *ReviewDraftUseCase {
	return &ReviewDraftUseCase{drafts: drafts}
}

func (uc *ReviewDraftUseCase) List(ctx context.Context, state domain.DraftState) ([]domain.Draft, error) {
	switch state {
	case "", domain.DraftPending, domain.DraftApproved, domain.DraftRejected:
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "list drafts",
			fmt.Errorf("unknown state filter %q", state))
	}

	drafts, err := uc.drafts.List(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	return drafts, nil
}

func (uc *ReviewDraftUseCase) Get(ctx context.Context, id string) (*domain.Draft, error) {
	draft, err := uc.drafts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch draft by id: %w", err)
	}
	return draft, nil
}

func (uc *ReviewDraftUseCase) Approve(ctx context.Context, id string) (*domain.Draft, error) {
	draft, err := uc.drafts.Approve(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("approve draft: %w", err)
	}
	return draft, nil
}

func (uc *ReviewDraftUseCase) Reject(ctx context.Context, id, reason string) (*domain.Draft, error) {
	draft, err := uc.drafts.Reject(ctx, id, reason)
	if err != nil {
		return nil, fmt.Errorf("reject draft: %w", err)
	}
	return draft, nil
}

func (uc *ReviewDraftUseCase) PurgeAll(ctx context.Context) (int, error) {
	count, err := uc.drafts.PurgeAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("purge drafts: %w", err)
	}
	return count, nil
}

func (uc *ReviewDraftUseCase) Artifact(ctx context.Context, draftID string, kind domain.ArtifactKind) (*domain.Artifact, error) {
	switch kind {
	case domain.ArtifactPermit, domain.ArtifactPaymentInstruction:
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "fetch artifact",
			fmt.Errorf("unknown artifact kind %q", kind))
	}

	draft, err := uc.drafts.GetByID(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("fetch draft by id: %w", err)
	}

	artifact, ok := draft.Bundle.Find(kind)
	if !ok {
		return nil, domain.WrapError(domain.ErrDraftNotFound, "fetch artifact",
			fmt.Errorf("draft %s has no %s artifact", draftID, kind))
	}
	return &artifact, nil
}

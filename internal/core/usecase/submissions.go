package usecase

import (
	"context"
	"fmt"

	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/domain"
	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/ports"
)

// SubmissionQueryUseCase is the read model behind submission status
// polling.
type SubmissionQueryUseCase struct {
	repo ports.SubmissionRepository
}

func NewSubmissionQueryUseCase(repo ports.SubmissionRepository) *SubmissionQueryUseCase {
	return &SubmissionQueryUseCase{repo: repo}
}

func (uc *SubmissionQueryUseCase) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	sub, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch submission by id: %w", err)
	}
	return sub, nil
}

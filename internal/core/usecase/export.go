package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/ports"
)

// ExportRegisterUseCase serializes every draft, whatever its state,
// into the accounting register.
type ExportRegisterUseCase struct {
	drafts ports.DraftRepository
	writer ports.RegisterWriter
	now    func() time.Time
}

func NewExportRegisterUseCase(drafts ports.DraftRepository, writer ports.RegisterWriter) *ExportRegisterUseCase {
	return &ExportRegisterUseCase{
		drafts: drafts,
		writer: writer,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (uc *ExportRegisterUseCase) ExportRegister(ctx context.Context) ([]byte, string, error) {
	drafts, err := uc.drafts.List(ctx, "")
	if err != nil {
		return nil, "", fmt.Errorf("list drafts: %w", err)
	}

	data, err := uc.writer.WriteRegister(drafts)
	if err != nil {
		return nil, "", fmt.Errorf("write register: %w", err)
	}

	filename := fmt.Sprintf("evidence_zuvp_%s.xlsx", uc.now().Format("20060102"))
	return data, filename, nil
}

package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/domain"
)

type registerWriterFake struct {
	data   []byte
	err    error
	drafts []domain.Draft
}

func (f *registerWriterFake) WriteRegister(drafts []domain.Draft) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.drafts = drafts
	return f.data, nil
}

func TestExportRegisterCoversAllStates(t *testing.T) {
	repo := newDraftRepoFake()
	seedPendingDraft(repo, "draft-1", nil)
	seedPendingDraft(repo, "draft-2", nil)
	if _, err := repo.Approve(context.Background(), "draft-1"); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}

	writer := &registerWriterFake{data: []byte("xlsx-bytes")}
	uc := NewExportRegisterUseCase(repo, writer)
	uc.now = func() time.Time { return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC) }

	data, filename, err := uc.ExportRegister(context.Background())
	if err != nil {
		t.Fatalf("ExportRegister() error = %v", err)
	}
	if string(data) != "xlsx-bytes" {
		t.Fatalf("unexpected payload %q", data)
	}
	if filename != "evidence_zuvp_20260601.xlsx" {
		t.Fatalf("unexpected filename %q", filename)
	}
	if len(writer.drafts) != 2 {
		t.Fatalf("expected both drafts exported regardless of state, got %d", len(writer.drafts))
	}
}

func TestExportRegisterSurfacesWriterFailure(t *testing.T) {
	writer := &registerWriterFake{err: errors.New("workbook failed")}
	uc := NewExportRegisterUseCase(newDraftRepoFake(), writer)

	_, _, err := uc.ExportRegister(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
}

type cacheFake struct {
	count    int
	clearErr error
	cleared  bool
}

func (f *cacheFake) Get(context.Context, string) (domain.ExtractedFields, bool, error) {
	return domain.ExtractedFields{}, false, nil
}

func (f *cacheFake) Put(context.Context, string, domain.ExtractedFields) error { return nil }

func (f *cacheFake) Clear(context.Context) (int, error) {
	if f.clearErr != nil {
		return 0, f.clearErr
	}
	f.cleared = true
	return f.count, nil
}

func TestClearExtractionCacheReportsCount(t *testing.T) {
	cache := &cacheFake{count: 7}
	uc := NewMaintenanceUseCase(cache)

	count, err := uc.ClearExtractionCache(context.Background())
	if err != nil {
		t.Fatalf("ClearExtractionCache() error = %v", err)
	}
	if count != 7 || !cache.cleared {
		t.Fatalf("expected 7 cleared entries, got %d (cleared=%v)", count, cache.cleared)
	}
}

func TestClearExtractionCacheSurfacesFailure(t *testing.T) {
	uc := NewMaintenanceUseCase(&cacheFake{clearErr: errors.New("fs error")})

	if _, err := uc.ClearExtractionCache(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

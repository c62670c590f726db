package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/domain"
)

func TestUploadStoresRecordsAndPublishes(t *testing.T) {
	repo := newSubmissionRepoFake()
	storage := newStorageFake()
	queue := &queueFake{}
	uc := NewIngestApplicationUseCase(repo, storage, queue)

	sub, err := uc.Upload(context.Background(), "zadost.txt", "text/plain", strings.NewReader("zabor chodniku"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if sub.Status != domain.SubmissionReceived {
		t.Fatalf("expected received status, got %s", sub.Status)
	}
	if sub.MediaType != "text/plain" {
		t.Fatalf("expected text/plain, got %s", sub.MediaType)
	}
	if !strings.HasPrefix(sub.StoragePath, "inbox/"+sub.ID+"/") {
		t.Fatalf("unexpected storage key %q", sub.StoragePath)
	}
	if string(storage.objects[sub.StoragePath]) != "zabor chodniku" {
		t.Fatalf("upload body not stored at %s", sub.StoragePath)
	}
	if _, ok := repo.subs[sub.ID]; !ok {
		t.Fatalf("submission record not created")
	}
	if len(queue.published) != 1 || queue.published[0] != sub.ID {
		t.Fatalf("expected ingestion event for %s, got %v", sub.ID, queue.published)
	}
}

func TestUploadRejectsUnsupportedFormat(t *testing.T) {
	repo := newSubmissionRepoFake()
	storage := newStorageFake()
	queue := &queueFake{}
	uc := NewIngestApplicationUseCase(repo, storage, queue)

	_, err := uc.Upload(context.Background(), "skript.exe", "application/x-msdownload", strings.NewReader("MZ"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if len(storage.objects) != 0 {
		t.Fatalf("nothing may be stored for rejected uploads")
	}
	if len(queue.published) != 0 {
		t.Fatalf("no event may be published for rejected uploads")
	}
}

func TestUploadInfersMediaTypeFromExtension(t *testing.T) {
	uc := NewIngestApplicationUseCase(newSubmissionRepoFake(), newStorageFake(), &queueFake{})

	sub, err := uc.Upload(context.Background(), "zadost.pdf", "", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if sub.MediaType != "application/pdf" {
		t.Fatalf("expected application/pdf, got %s", sub.MediaType)
	}

	sub, err = uc.Upload(context.Background(), "foto.jpg", "application/octet-stream", strings.NewReader("\xff\xd8"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if sub.MediaType != "image/jpeg" {
		t.Fatalf("expected image/jpeg, got %s", sub.MediaType)
	}
}

func TestUploadNormalizesDeclaredType(t *testing.T) {
	uc := NewIngestApplicationUseCase(newSubmissionRepoFake(), newStorageFake(), &queueFake{})

	sub, err := uc.Upload(context.Background(), "sken.jpg", "image/jpg; charset=binary", strings.NewReader("\xff\xd8"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if sub.MediaType != "image/jpeg" {
		t.Fatalf("expected image/jpeg, got %s", sub.MediaType)
	}
}

func TestUploadSanitizesStorageKey(t *testing.T) {
	storage := newStorageFake()
	uc := NewIngestApplicationUseCase(newSubmissionRepoFake(), storage, &queueFake{})

	sub, err := uc.Upload(context.Background(), "žádost o zábor.pdf", "application/pdf", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if strings.ContainsAny(sub.StoragePath, " ž") {
		t.Fatalf("storage key not sanitized: %q", sub.StoragePath)
	}
	if sub.Filename != "žádost o zábor.pdf" {
		t.Fatalf("original filename must be preserved on the record, got %q", sub.Filename)
	}
}

func TestUploadSurfacesPublishFailure(t *testing.T) {
	queue := &queueFake{err: errors.New("nats down")}
	uc := NewIngestApplicationUseCase(newSubmissionRepoFake(), newStorageFake(), queue)

	_, err := uc.Upload(context.Background(), "zadost.txt", "text/plain", strings.NewReader("x"))
	if err == nil || !strings.Contains(err.Error(), "publish ingestion event") {
		t.Fatalf("expected publish failure surfaced, got %v", err)
	}
}

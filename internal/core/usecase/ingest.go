package usecase

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/domain"
	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/ports"
)

const mediaTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// supportedMediaTypes lists the formats the extraction pipeline can
// read. Anything else is refused at the door, before storage is touched.
var supportedMediaTypes = map[string]struct{}{
	"text/plain":      {},
	"application/pdf": {},
	"image/png":       {},
	"image/jpeg":      {},
	mediaTypeDOCX:     {},
}

var extensionMediaTypes = map[string]string{
	".txt":  "text/plain",
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".docx": mediaTypeDOCX,
}

type IngestApplicationUseCase struct {
	repo    ports.SubmissionRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewIngestApplicationUseCase(
	repo ports.SubmissionRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *IngestApplicationUseCase {
	return &IngestApplicationUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
	}
}

func (uc *IngestApplicationUseCase) Upload(
	ctx context.Context,
	filename, mediaType string,
	body io.Reader,
) (*domain.Submission, error) {
	resolved, err := resolveMediaType(filename, mediaType)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("inbox/%s/%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	sub := &domain.Submission{
		ID:          id,
		Filename:    filename,
		MediaType:   resolved,
		StoragePath: storageKey,
		Status:      domain.SubmissionReceived,
		ReceivedAt:  now,
		UpdatedAt:   now,
	}

	if err := uc.repo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create submission record: %w", err)
	}

	if err := uc.queue.PublishSubmissionReceived(ctx, sub.ID); err != nil {
		return nil, fmt.Errorf("publish ingestion event: %w", err)
	}

	return sub, nil
}

// resolveMediaType normalizes the declared type, falls back to the
// filename extension, and rejects formats the pipeline cannot read.
func resolveMediaType(filename, mediaType string) (string, error) {
	resolved := ""
	if parsed, _, err := mime.ParseMediaType(strings.TrimSpace(mediaType)); err == nil {
		resolved = strings.ToLower(parsed)
	}
	if resolved == "" || resolved == "application/octet-stream" {
		if byExt, ok := extensionMediaTypes[strings.ToLower(filepath.Ext(filename))]; ok {
			resolved = byExt
		}
	}
	if resolved == "image/jpg" {
		resolved = "image/jpeg"
	}
	if _, ok := supportedMediaTypes[resolved]; !ok {
		return "", domain.WrapError(domain.ErrUnsupportedFormat, "upload application",
			fmt.Errorf("media type %q (file %s)", resolved, filename))
	}
	return resolved, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "application.bin"
	}
	return base
}

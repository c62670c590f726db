package fscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/domain"
)

// Cache persists extraction results as one JSON file per fingerprint.
// Writes go through a temp file plus rename, so a racing Put for the
// same key is last-writer-wins with no torn reads. Entries live until
// Clear; staleness is impossible because the fingerprint covers the
// content, modality and model.
type Cache struct {
	basePath string
}

func New(basePath string) (*Cache, error) {
	if basePath == "" {
		basePath = "./data/cache"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Cache{basePath: basePath}, nil
}

func (c *Cache) Get(_ context.Context, fingerprint string) (domain.ExtractedFields, bool, error) {
	path, err := c.entryPath(fingerprint)
	if err != nil {
		return domain.ExtractedFields{}, false, err
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.ExtractedFields{}, false, nil
	}
	if err != nil {
		return domain.ExtractedFields{}, false, fmt.Errorf("read cache entry: %w", err)
	}

	var fields domain.ExtractedFields
	if err := json.Unmarshal(raw, &fields); err != nil {
		// A corrupt entry is treated as absent, and removed so the
		// next Put rewrites it cleanly.
		_ = os.Remove(path)
		return domain.ExtractedFields{}, false, nil
	}
	return fields, true, nil
}

func (c *Cache) Put(_ context.Context, fingerprint string, fields domain.ExtractedFields) error {
	path, err := c.entryPath(fingerprint)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(c.basePath, "put-*")
	if err != nil {
		return fmt.Errorf("create temp entry: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp entry: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("publish cache entry: %w", err)
	}
	return nil
}

func (c *Cache) Clear(_ context.Context) (int, error) {
	entries, err := os.ReadDir(c.basePath)
	if err != nil {
		return 0, fmt.Errorf("list cache dir: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(c.basePath, entry.Name())); err != nil {
			return removed, fmt.Errorf("remove cache entry %s: %w", entry.Name(), err)
		}
		removed++
	}
	return removed, nil
}

// entryPath validates the fingerprint before it touches the
// filesystem; nothing with a path separator or dot maps to a file.
func (c *Cache) entryPath(fingerprint string) (string, error) {
	if fingerprint == "" || strings.ContainsAny(fingerprint, "/\\.") {
		return "", fmt.Errorf("malformed fingerprint %q", fingerprint)
	}
	return filepath.Join(c.basePath, fingerprint+".json"), nil
}

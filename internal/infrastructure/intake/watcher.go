package intake

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/ports"
)

// Extensions picked up from the drop folder (lowercase, without '.').
var defaultExts = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"txt":  {},
	"docx": {},
}

const (
	processedDirName = "processed"
	failedDirName    = "failed"
)

// Watcher feeds files dropped into a local inbox directory to the
// ingestor. Handled files are moved into processed/ or failed/ under
// the inbox, so a restart never re-submits them.
type Watcher struct {
	inboxDir     string
	processedDir string
	failedDir    string
	debounce     time.Duration
	initialScan  bool
	allowedExts  map[string]struct{}
	ingestor     ports.ApplicationIngestor
	logger       *slog.Logger
}

type Options struct {
	// Debounce coalesces the create/write bursts a file copy produces,
	// so the file is read only after the writer went quiet.
	Debounce    time.Duration
	InitialScan bool
	AllowedExts map[string]struct{}
}

func New(inboxDir string, ingestor ports.ApplicationIngestor, logger *slog.Logger) (*Watcher, error) {
	return NewWithOptions(inboxDir, ingestor, logger, Options{})
}

func NewWithOptions(inboxDir string, ingestor ports.ApplicationIngestor, logger *slog.Logger, options Options) (*Watcher, error) {
	if inboxDir == "" {
		return nil, fmt.Errorf("inbox dir is required")
	}
	if ingestor == nil {
		return nil, fmt.Errorf("ingestor is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	debounce := options.Debounce
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	allowedExts := options.AllowedExts
	if allowedExts == nil {
		allowedExts = defaultExts
	}

	for _, dir := range []string{
		inboxDir,
		filepath.Join(inboxDir, processedDirName),
		filepath.Join(inboxDir, failedDirName),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create intake dir: %w", err)
		}
	}

	return &Watcher{
		inboxDir:     inboxDir,
		processedDir: filepath.Join(inboxDir, processedDirName),
		failedDir:    filepath.Join(inboxDir, failedDirName),
		debounce:     debounce,
		initialScan:  options.InitialScan,
		allowedExts:  allowedExts,
		ingestor:     ingestor,
		logger:       logger,
	}, nil
}

// Run blocks until ctx is cancelled. The pending set and its flush
// timer live entirely in this goroutine.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fs watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.inboxDir); err != nil {
		return fmt.Errorf("watch inbox dir: %w", err)
	}

	pending := map[string]struct{}{}
	if w.initialScan {
		entries, err := os.ReadDir(w.inboxDir)
		if err != nil {
			return fmt.Errorf("scan inbox dir: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(w.inboxDir, entry.Name())
			if w.allowed(path) {
				pending[path] = struct{}{}
			}
		}
	}

	var flushTimer *time.Timer
	var flushC <-chan time.Time
	armFlush := func() {
		if flushTimer != nil {
			flushTimer.Stop()
		}
		flushTimer = time.NewTimer(w.debounce)
		flushC = flushTimer.C
	}
	if len(pending) > 0 {
		armFlush()
	}

	w.logger.Info("intake watcher started", "inbox", w.inboxDir, "initial_files", len(pending))

	for {
		select {
		case <-ctx.Done():
			if flushTimer != nil {
				flushTimer.Stop()
			}
			return nil

		case <-flushC:
			flushC = nil
			for path := range pending {
				delete(pending, path)
				w.handleFile(ctx, path)
			}

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("fs watcher closed")
			}
			if !w.allowed(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			pending[event.Name] = struct{}{}
			armFlush()

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("fs watcher closed")
			}
			w.logger.Error("fs watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleFile(ctx context.Context, path string) {
	name := filepath.Base(path)

	f, err := os.Open(path)
	if err != nil {
		// Renames fire an event for the old path; the file is gone.
		if errors.Is(err, fs.ErrNotExist) {
			return
		}
		w.logger.Warn("intake open failed", "path", path, "error", err)
		return
	}

	mediaType := mime.TypeByExtension(filepath.Ext(name))
	submission, err := w.ingestor.Upload(ctx, name, mediaType, f)
	_ = f.Close()
	if err != nil {
		w.logger.Error("intake upload failed", "file", name, "error", err)
		w.archive(path, w.failedDir)
		return
	}

	w.logger.Info("intake accepted", "file", name, "submission_id", submission.ID)
	w.archive(path, w.processedDir)
}

// archive moves a handled file out of the inbox. A timestamp prefix
// keeps repeated drops of the same filename apart.
func (w *Watcher) archive(path, destDir string) {
	dest := filepath.Join(destDir, time.Now().UTC().Format("20060102T150405.000")+"_"+filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		w.logger.Warn("intake archive failed", "path", path, "error", err)
	}
}

func (w *Watcher) allowed(path string) bool {
	if filepath.Dir(path) != filepath.Clean(w.inboxDir) {
		return false
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	_, ok := w.allowedExts[ext]
	return ok
}

package spool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"

	"relish/internal/config"
	"relish/internal/fileutil"
	"relish/internal/ingest"
	"relish/internal/logging"
	"relish/internal/notifications"
)

// Processor handles one parsed batch. Satisfied by ingest.Processor.
type Processor interface {
	ProcessBatch(ctx context.Context, records []ingest.Record) ([]ingest.Record, error)
}

// Report is the JSON document written next to each archived batch.
type Report struct {
	Batch       string          `json:"batch"`
	CompletedAt string          `json:"completed_at"`
	Summary     ingest.Summary  `json:"summary"`
	Records     []ingest.Record `json:"records"`
}

// Watcher drives the spool directory loop and enforces single-instance
// execution.
type Watcher struct {
	spoolDir   string
	archiveDir string
	patterns   []string
	settle     time.Duration
	retention  int
	processor  Processor
	notifier   notifications.Service
	logger     *slog.Logger

	lockPath string
	lock     *flock.Flock
}

// NewWatcher constructs a watcher with initialized dependencies.
func NewWatcher(cfg *config.Config, processor Processor, notifier notifications.Service, logger *slog.Logger) (*Watcher, error) {
	if cfg == nil || processor == nil || notifier == nil {
		return nil, errors.New("watcher requires config, processor, and notifier")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "relish-watch.lock")
	return &Watcher{
		spoolDir:   cfg.Paths.SpoolDir,
		archiveDir: cfg.Paths.ArchiveDir,
		patterns:   cfg.Ingest.Patterns,
		settle:     time.Duration(cfg.Ingest.SettleMS) * time.Millisecond,
		retention:  cfg.Ingest.RetentionDays,
		processor:  processor,
		notifier:   notifier,
		logger:     logger,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}, nil
}

// Run acquires the instance lock and watches the spool directory until the
// context is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(w.lockPath), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := w.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire watch lock: %w", err)
	}
	if !ok {
		return errors.New("another relish watcher is already running")
	}
	defer func() {
		if err := w.lock.Unlock(); err != nil {
			w.logger.Warn("failed to release watch lock", logging.Error(err))
		}
	}()

	if err := os.MkdirAll(w.spoolDir, 0o755); err != nil {
		return fmt.Errorf("create spool directory: %w", err)
	}
	if err := os.MkdirAll(w.archiveDir, 0o755); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}
	w.pruneArchive()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create filesystem watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.spoolDir); err != nil {
		return fmt.Errorf("watch spool directory: %w", err)
	}

	w.logger.Info("spool watcher started",
		logging.String("dir", w.spoolDir),
		logging.String("lock", w.lockPath))

	// The directory subscription is live before the scan, so a file landing
	// mid-scan is seen twice at worst and handleFile skips the second pass.
	w.scanExisting(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("spool watcher stopped")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("watch events channel closed")
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			w.handleFile(ctx, event.Name)
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return errors.New("watch errors channel closed")
			}
			w.logger.Error("filesystem watcher error", logging.Error(watchErr))
		}
	}
}

func (w *Watcher) scanExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.spoolDir)
	if err != nil {
		w.logger.Error("scan spool directory", logging.Error(err))
		return
	}
	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		if entry.IsDir() {
			continue
		}
		w.handleFile(ctx, filepath.Join(w.spoolDir, entry.Name()))
	}
}

func (w *Watcher) handleFile(ctx context.Context, path string) {
	name := filepath.Base(path)
	if !w.matches(name) {
		return
	}
	logger := w.logger.With(logging.String("batch", name))

	if w.settle > 0 {
		select {
		case <-time.After(w.settle):
		case <-ctx.Done():
			return
		}
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	summary, err := w.processFile(ctx, path, name)
	if err != nil {
		logger.Error("batch processing failed", logging.Error(err))
		w.notify(ctx, notifications.EventError, notifications.Payload{
			"context": "spool",
			"error":   err.Error(),
		})
		return
	}

	logger.Info("batch archived",
		logging.Int("resolved", summary.Resolved),
		logging.Int("duplicates", summary.Duplicates),
		logging.Int("errors", summary.Errors))
	w.notify(ctx, notifications.EventBatchCompleted, notifications.Payload{
		"batch":      name,
		"resolved":   strconv.Itoa(summary.Resolved),
		"duplicates": strconv.Itoa(summary.Duplicates),
		"errors":     strconv.Itoa(summary.Errors),
	})
}

func (w *Watcher) processFile(ctx context.Context, path, name string) (ingest.Summary, error) {
	file, err := os.Open(path)
	if err != nil {
		return ingest.Summary{}, fmt.Errorf("open batch: %w", err)
	}
	records, err := ingest.ParseBatch(file)
	_ = file.Close()
	if err != nil {
		return ingest.Summary{}, err
	}

	results, err := w.processor.ProcessBatch(ctx, records)
	if err != nil {
		return ingest.Summary{}, err
	}

	if err := w.writeReport(name, results); err != nil {
		return ingest.Summary{}, err
	}
	if err := fileutil.MoveFile(path, filepath.Join(w.archiveDir, name)); err != nil {
		return ingest.Summary{}, fmt.Errorf("archive batch: %w", err)
	}
	return ingest.Summarize(results), nil
}

func (w *Watcher) writeReport(name string, results []ingest.Record) error {
	report := Report{
		Batch:       name,
		CompletedAt: time.Now().UTC().Format(time.RFC3339),
		Summary:     ingest.Summarize(results),
		Records:     results,
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	data = append(data, '\n')
	target := filepath.Join(w.archiveDir, name+".results.json")
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}

func (w *Watcher) matches(name string) bool {
	// Result reports must never re-enter the pipeline, even under a
	// blanket pattern.
	if strings.HasSuffix(name, ".results.json") {
		return false
	}
	for _, pattern := range w.patterns {
		ok, err := doublestar.Match(pattern, name)
		if err != nil {
			w.logger.Warn("invalid spool pattern",
				logging.String("pattern", pattern),
				logging.Error(err))
			continue
		}
		if ok {
			return true
		}
	}
	return false
}

func (w *Watcher) notify(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if ctx.Err() != nil {
		return
	}
	if err := w.notifier.Publish(ctx, event, payload); err != nil {
		w.logger.Warn("notification failed", logging.Error(err))
	}
}

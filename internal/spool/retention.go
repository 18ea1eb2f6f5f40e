package spool

import (
	"os"
	"path/filepath"
	"time"

	"relish/internal/logging"
)

// pruneArchive removes archived batches and their reports once they age past
// the retention window. A retention of zero days keeps everything.
func (w *Watcher) pruneArchive() {
	if w.retention <= 0 {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -w.retention)

	entries, err := os.ReadDir(w.archiveDir)
	if err != nil {
		w.logger.Warn("scan archive directory", logging.Error(err))
		return
	}
	pruned := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(w.archiveDir, entry.Name())
		if err := os.Remove(path); err != nil {
			w.logger.Warn("archive retention remove failed; file remains",
				logging.String("path", path),
				logging.Error(err))
			continue
		}
		pruned++
	}
	if pruned > 0 {
		w.logger.Info("archive pruned",
			logging.Int("removed", pruned),
			logging.Int("retention_days", w.retention))
	}
}

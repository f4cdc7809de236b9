package logging

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// logDirSweepInterval paces the background sweeps. Rotations only happen
// every 10 MB of output, so a tight loop buys nothing.
const logDirSweepInterval = 5 * time.Minute

var logDirCleanerCancel context.CancelFunc

// configureLogDirCleanerLocked starts (or stops) the sweeper that keeps the
// logs directory under the logs-max-total-size-mb cap as lumberjack backups
// of main.log accumulate. Callers hold writerMu.
func configureLogDirCleanerLocked(logDir string, maxTotalSizeMB int, protectedPath string) {
	stopLogDirCleanerLocked()

	if maxTotalSizeMB <= 0 || strings.TrimSpace(logDir) == "" {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	logDirCleanerCancel = cancel
	go sweepLogDir(ctx, filepath.Clean(logDir), int64(maxTotalSizeMB)<<20, filepath.Clean(protectedPath))
}

func stopLogDirCleanerLocked() {
	if logDirCleanerCancel == nil {
		return
	}
	logDirCleanerCancel()
	logDirCleanerCancel = nil
}

func sweepLogDir(ctx context.Context, logDir string, maxBytes int64, protectedPath string) {
	ticker := time.NewTicker(logDirSweepInterval)
	defer ticker.Stop()

	for {
		deleted, err := pruneLogDir(logDir, maxBytes, protectedPath)
		if err != nil {
			log.WithError(err).Warn("logging: log directory sweep failed")
		} else if deleted > 0 {
			log.Debugf("logging: pruned %d rotated log file(s)", deleted)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// pruneLogDir removes rotated log files, oldest first, until the directory's
// total size fits maxBytes. The active main.log (protectedPath) counts
// toward the total but is never removed.
func pruneLogDir(logDir string, maxBytes int64, protectedPath string) (int, error) {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	type rotatedFile struct {
		path    string
		size    int64
		modTime time.Time
	}

	var total int64
	var candidates []rotatedFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".log") {
			continue
		}
		info, errInfo := entry.Info()
		if errInfo != nil || !info.Mode().IsRegular() {
			continue
		}
		total += info.Size()
		path := filepath.Join(logDir, entry.Name())
		if filepath.Clean(path) == protectedPath {
			continue
		}
		candidates = append(candidates, rotatedFile{path: path, size: info.Size(), modTime: info.ModTime()})
	}

	if total <= maxBytes {
		return 0, nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].modTime.Before(candidates[j].modTime)
	})

	deleted := 0
	for _, file := range candidates {
		if total <= maxBytes {
			break
		}
		if errRemove := os.Remove(file.path); errRemove != nil {
			log.WithError(errRemove).Warnf("logging: failed to prune %s", filepath.Base(file.path))
			continue
		}
		total -= file.size
		deleted++
	}
	return deleted, nil
}

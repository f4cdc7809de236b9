package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeRotatedLog(t *testing.T, path string, size int, modTime time.Time) {
	t.Helper()
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

func TestPruneLogDirRemovesOldestFirst(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	active := filepath.Join(dir, "main.log")

	writeRotatedLog(t, filepath.Join(dir, "main-2026-08-01.log"), 60, time.Unix(100, 0))
	writeRotatedLog(t, filepath.Join(dir, "main-2026-08-10.log"), 60, time.Unix(200, 0))
	writeRotatedLog(t, active, 60, time.Unix(300, 0))

	deleted, err := pruneLogDir(dir, 120, active)
	if err != nil {
		t.Fatalf("pruneLogDir: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}
	if _, err := os.Stat(filepath.Join(dir, "main-2026-08-01.log")); !os.IsNotExist(err) {
		t.Error("oldest rotation should have been pruned")
	}
	if _, err := os.Stat(filepath.Join(dir, "main-2026-08-10.log")); err != nil {
		t.Errorf("newer rotation should remain: %v", err)
	}
}

func TestPruneLogDirNeverRemovesActiveFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	active := filepath.Join(dir, "main.log")

	writeRotatedLog(t, active, 200, time.Unix(100, 0))
	writeRotatedLog(t, filepath.Join(dir, "main-2026-08-10.log"), 50, time.Unix(200, 0))

	deleted, err := pruneLogDir(dir, 100, active)
	if err != nil {
		t.Fatalf("pruneLogDir: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}
	if _, err := os.Stat(active); err != nil {
		t.Errorf("active main.log must survive even when oversize: %v", err)
	}
}

func TestPruneLogDirUnderLimitIsNoop(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeRotatedLog(t, filepath.Join(dir, "main-2026-08-10.log"), 10, time.Unix(100, 0))

	deleted, err := pruneLogDir(dir, 1<<20, filepath.Join(dir, "main.log"))
	if err != nil {
		t.Fatalf("pruneLogDir: %v", err)
	}
	if deleted != 0 {
		t.Errorf("deleted = %d, want 0", deleted)
	}
}

func TestPruneLogDirMissingDirectory(t *testing.T) {
	t.Parallel()
	deleted, err := pruneLogDir(filepath.Join(t.TempDir(), "absent"), 100, "")
	if err != nil {
		t.Fatalf("pruneLogDir on missing dir: %v", err)
	}
	if deleted != 0 {
		t.Errorf("deleted = %d, want 0", deleted)
	}
}

func TestPruneLogDirIgnoresNonLogFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	other := filepath.Join(dir, "notes.txt")
	writeRotatedLog(t, other, 500, time.Unix(100, 0))
	writeRotatedLog(t, filepath.Join(dir, "main-2026-08-10.log"), 50, time.Unix(200, 0))

	deleted, err := pruneLogDir(dir, 100, "")
	if err != nil {
		t.Fatalf("pruneLogDir: %v", err)
	}
	if deleted != 0 {
		t.Errorf("deleted = %d, want 0; non-log files must not count or be pruned", deleted)
	}
	if _, err := os.Stat(other); err != nil {
		t.Errorf("non-log file should remain: %v", err)
	}
}

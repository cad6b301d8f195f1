package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// FileSink writes records to a local CSV or XLSX file.
type FileSink struct {
	path   string
	format Format
	logger *slog.Logger
}

func NewFileSink(path string, logger *slog.Logger) *FileSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSink{path: path, format: FormatFor(path), logger: logger}
}

func (s *FileSink) String() string { return s.path }

func (s *FileSink) Close() error { return nil }

// Write replaces the file atomically: temp file in the same directory, then rename.
func (s *FileSink) Write(_ context.Context, recs ...Record) error {
	start := time.Now()
	data, err := Encode(s.format, recs)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.format, err)
	}
	if err := writeFileAtomic(s.path, data, 0o644); err != nil {
		return err
	}
	s.logger.Info("export.file.ok",
		"path", s.path,
		"format", s.format,
		"rows", len(recs),
		"bytes", len(data),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName) // no-op after a successful rename
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("chmod temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/certidao-ocr/internal/common"
)

// ListImages walks root, filters by includeExts (or the default image set),
// skips hidden entries if requested and returns matching paths sorted.
func ListImages(root string, includeExts []string, skipHidden bool) ([]string, DirStats, error) {
	var stats DirStats
	if strings.TrimSpace(root) == "" {
		return nil, stats, common.NewAppError(common.CodeInvalidInput, "root path is required", nil)
	}
	exts := extSet(includeExts)

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			slog.Warn("ingest.walk.error", "path", path, "error", walkErr)
			return nil // continue walking
		}
		if path != root && skipHidden && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		stats.Scanned++
		if !allowed(path, exts) {
			return nil
		}
		stats.Matched++
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, stats, common.NewAppError(common.CodeFileNotFound, "directory not found: "+root, err)
		}
		return nil, stats, fmt.Errorf("walk: %w", err)
	}
	slices.Sort(paths)
	return paths, stats, nil
}

// RunBatch processes paths with at most workers runs in flight. Failures are
// recorded per file and do not stop the batch; only ctx cancellation does.
// Results keep the order of paths. Nothing is persisted here: each run
// gets a nil sink and the caller writes the collected rows.
func RunBatch(ctx context.Context, proc Processor, paths []string, workers int, logger *slog.Logger) ([]FileResult, DirStats) {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = 1
	}
	results := make([]FileResult, len(paths))
	var succeeded, failed atomic.Uint32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			results[i].Path = path
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				failed.Add(1)
				return nil
			}
			res, err := proc.ProcessFile(gctx, path, nil)
			if err != nil {
				logger.Warn("ingest.batch.file_failed", "path", path, "error", err)
				results[i].Err = err
				failed.Add(1)
				return nil
			}
			results[i].Result = res
			succeeded.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	stats := DirStats{
		Matched:   uint32(len(paths)),
		Succeeded: succeeded.Load(),
		Failed:    failed.Load(),
	}
	logger.Info("ingest.batch.done",
		"files", len(paths),
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"workers", workers,
	)
	return results, stats
}

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/certidao-ocr/internal/export"
	"github.com/joseph-ayodele/certidao-ocr/internal/ingest"
	"github.com/joseph-ayodele/certidao-ocr/internal/pipeline"
)

// watchDir processes scans that appear under dir until ctx is done. File
// sinks are rewritten with every row seen so far, starting from seen; store
// and Firestore sinks get one insert per scan.
func watchDir(ctx context.Context, proc *pipeline.Pipeline, sink export.Sink, seen []export.Record, dir string, skipHidden bool, debounce time.Duration, logger *slog.Logger) {
	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:      []string{dir},
		SkipHidden: skipHidden,
		Debounce:   debounce,
	}, logger)
	if err != nil {
		logger.Error("batch.watch.start_failed", "error", err)
		return
	}
	logger.Info("batch.watch.start", "dir", dir)

	appendOnly := export.AppendOnly(sink)
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("batch.watch.error", "error", err)
		case path, ok := <-events:
			if !ok {
				return
			}
			res, err := proc.ProcessFile(ctx, path, nil)
			if err != nil {
				logger.Warn("batch.watch.file_failed", "path", path, "error", err)
				continue
			}
			rec := export.Record{Source: path, Row: res.Row, Fields: res.Fields}
			batch := []export.Record{rec}
			if !appendOnly {
				seen = append(seen, rec)
				batch = seen
			}
			if err := sink.Write(ctx, batch...); err != nil {
				logger.Error("batch.watch.write_failed", "path", path, "error", err)
			}
		}
	}
}

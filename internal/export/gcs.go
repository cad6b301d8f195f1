package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"cloud.google.com/go/storage"
)

// GCSSink uploads the encoded document to a Cloud Storage object.
type GCSSink struct {
	client *storage.Client
	owned  bool
	bucket string
	key    string
	format Format
	logger *slog.Logger
}

func NewGCSSink(ctx context.Context, bucket, key string, logger *slog.Logger) (*GCSSink, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	s := NewGCSSinkWithClient(client, bucket, key, logger)
	s.owned = true
	return s, nil
}

// NewGCSSinkWithClient reuses a client owned by the caller; Close leaves it open.
func NewGCSSinkWithClient(client *storage.Client, bucket, key string, logger *slog.Logger) *GCSSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &GCSSink{client: client, bucket: bucket, key: key, format: FormatFor(key), logger: logger}
}

func (s *GCSSink) String() string { return "gs://" + s.bucket + "/" + s.key }

func (s *GCSSink) Close() error {
	if s.owned {
		return s.client.Close()
	}
	return nil
}

func (s *GCSSink) Write(ctx context.Context, recs ...Record) error {
	start := time.Now()
	data, err := Encode(s.format, recs)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.format, err)
	}

	w := s.client.Bucket(s.bucket).Object(s.key).NewWriter(ctx)
	w.ContentType = contentType(s.format)
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		s.logger.Error("export.gcs.error", "bucket", s.bucket, "key", s.key, "error", err)
		return fmt.Errorf("failed to write to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		s.logger.Error("export.gcs.error", "bucket", s.bucket, "key", s.key, "error", err)
		return fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	s.logger.Info("export.gcs.ok",
		"bucket", s.bucket,
		"key", s.key,
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Package trigger handles Cloud Storage "object finalized" CloudEvents: the
// uploaded scan is processed and its row is written back as a CSV object.
package trigger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/joseph-ayodele/certidao-ocr/internal/common"
	"github.com/joseph-ayodele/certidao-ocr/internal/export"
	"github.com/joseph-ayodele/certidao-ocr/internal/ingest"
	"github.com/joseph-ayodele/certidao-ocr/internal/ocr"
	"github.com/joseph-ayodele/certidao-ocr/internal/pipeline"
)

// StorageObjectData is the subset of the GCS object payload we read.
type StorageObjectData struct {
	Bucket      string `json:"bucket"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
}

// DecodeStorageEvent reads the object reference out of a CloudEvent.
func DecodeStorageEvent(e cloudevents.Event) (StorageObjectData, error) {
	var d StorageObjectData
	if err := e.DataAs(&d); err != nil {
		return d, common.NewAppError(common.CodeInvalidInput, "decode storage event "+e.ID(), err)
	}
	if d.Bucket == "" || d.Name == "" {
		return d, common.NewAppError(common.CodeInvalidInput, "storage event "+e.ID()+" lacks bucket or name", nil)
	}
	return d, nil
}

type ImageProcessor interface {
	ProcessImage(ctx context.Context, img ocr.Image, sink export.Sink) (*pipeline.Result, error)
}

// ObjectReader downloads an object.
type ObjectReader interface {
	ReadObject(ctx context.Context, bucket, name string) ([]byte, error)
}

// SinkFactory returns the sink for one output object.
type SinkFactory func(bucket, key string) export.Sink

type Handler struct {
	Proc         ImageProcessor
	Objects      ObjectReader
	NewSink      SinkFactory
	OutputBucket string // empty: write next to the source object
	OutputPrefix string
	Logger       *slog.Logger
}

// OutputKey is where the row for object name is written.
func (h *Handler) OutputKey(name string) string {
	return path.Join(h.OutputPrefix, name) + ".csv"
}

// Handle processes one event. Objects that are not images, or that live under
// the output prefix, are skipped without error so the event is not retried.
func (h *Handler) Handle(ctx context.Context, e cloudevents.Event) error {
	start := time.Now()
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}

	obj, err := DecodeStorageEvent(e)
	if err != nil {
		logger.Error("trigger.decode.failed", "event_id", e.ID(), "error", err)
		return err
	}
	logger = logger.With("gcs_bucket", obj.Bucket, "gcs_object", obj.Name)

	outBucket := h.OutputBucket
	if outBucket == "" {
		outBucket = obj.Bucket
	}
	if h.OutputPrefix != "" && outBucket == obj.Bucket && strings.HasPrefix(obj.Name, strings.TrimSuffix(h.OutputPrefix, "/")+"/") {
		logger.Info("trigger.skip", "reason", "output object")
		return nil
	}
	if !ingest.AllowedExt(path.Ext(obj.Name)) {
		logger.Info("trigger.skip", "reason", "not an image")
		return nil
	}

	ctx, rid := common.EnsureRequestID(ctx)
	data, err := h.Objects.ReadObject(ctx, obj.Bucket, obj.Name)
	if err != nil {
		logger.Error("trigger.download.failed", "req_id", rid, "error", err)
		return fmt.Errorf("download gs://%s/%s: %w", obj.Bucket, obj.Name, err)
	}
	img, err := ocr.NewImage(obj.Name, data)
	if err != nil {
		logger.Error("trigger.image.invalid", "req_id", rid, "error", err)
		return nil // retrying will not fix the bytes
	}

	sink := h.NewSink(outBucket, h.OutputKey(obj.Name))
	defer func() { _ = sink.Close() }()

	res, err := h.Proc.ProcessImage(ctx, img, sink)
	if err != nil {
		logger.Error("trigger.process.failed", "req_id", rid, "error", err)
		return err
	}
	logger.Info("trigger.ok",
		"req_id", rid,
		"output", res.Sink,
		"strategy", res.Strategy,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// GCSObjects reads objects with a shared storage client.
type GCSObjects struct {
	Client *storage.Client
}

func (g GCSObjects) ReadObject(ctx context.Context, bucket, name string) ([]byte, error) {
	r, err := g.Client.Bucket(bucket).Object(name).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()
	return io.ReadAll(r)
}

// GCSSinks builds a SinkFactory writing through client.
func GCSSinks(client *storage.Client, logger *slog.Logger) SinkFactory {
	return func(bucket, key string) export.Sink {
		return export.NewGCSSinkWithClient(client, bucket, key, logger)
	}
}

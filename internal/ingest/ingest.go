// Package ingest discovers certificate scans on disk and runs them through
// the pipeline in bounded parallel batches.
package ingest

import (
	"context"

	"github.com/joseph-ayodele/certidao-ocr/internal/export"
	"github.com/joseph-ayodele/certidao-ocr/internal/pipeline"
)

// Processor runs one file. *pipeline.Pipeline satisfies it.
type Processor interface {
	ProcessFile(ctx context.Context, path string, sink export.Sink) (*pipeline.Result, error)
}

// FileResult is the per-file outcome; exactly one of Result and Err is set.
type FileResult struct {
	Path   string
	Result *pipeline.Result
	Err    error
}

// DirStats summarizes a directory walk and the batch that followed.
type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Failed    uint32
}

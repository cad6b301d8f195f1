// Package pipeline chains the certidão stages: load, extract, structure,
// recover, build and, optionally, persist.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/certidao-ocr/constants"
	"github.com/joseph-ayodele/certidao-ocr/internal/common"
	"github.com/joseph-ayodele/certidao-ocr/internal/export"
	"github.com/joseph-ayodele/certidao-ocr/internal/llm"
	"github.com/joseph-ayodele/certidao-ocr/internal/ocr"
	"github.com/joseph-ayodele/certidao-ocr/internal/record"
)

// TextExtractor reads the text of a scan.
type TextExtractor interface {
	Extract(ctx context.Context, img ocr.Image) (ocr.ExtractionResult, error)
}

// TextStructurer turns extracted text into a model answer expected to hold JSON.
type TextStructurer interface {
	Structure(ctx context.Context, text string) (string, error)
}

// Timings of one run.
type Timings struct {
	Extract   time.Duration
	Structure time.Duration
	Total     time.Duration
}

// Result of a successful run.
type Result struct {
	RequestID string
	Source    string
	Row       record.Row
	Fields    map[string]any
	Strategy  llm.Strategy
	Text      string // extracted text
	Response  string // raw structuring answer
	Sink      string // empty when nothing was persisted
	Timings   Timings
}

// Pipeline runs one certificate at a time. It holds no per-run state, so a
// single value may serve concurrent runs.
type Pipeline struct {
	Logger     *slog.Logger
	Extractor  TextExtractor
	Structurer TextStructurer
	schema     *jsonschema.Schema // nil disables the advisory check
}

func NewPipeline(logger *slog.Logger, extractor TextExtractor, structurer TextStructurer) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	schema, err := llm.CompileCertidaoSchema()
	if err != nil {
		logger.Warn("pipeline.schema.compile_failed", "error", err)
	}
	return &Pipeline{
		Logger:     logger,
		Extractor:  extractor,
		Structurer: structurer,
		schema:     schema,
	}
}

// NewFromConfig wires the vision extractor and the text structurer to one client.
func NewFromConfig(cfg common.LLMConfig, client llm.Completer, logger *slog.Logger) *Pipeline {
	// temperature stays 0 for both models: runs must be reproducible
	opts := llm.Options{Temperature: 0, NumCtx: cfg.NumCtx}
	extractor := ocr.NewExtractor(ocr.Config{
		Model:     cfg.VisionModel,
		Options:   opts,
		Normalize: cfg.NormalizeText,
	}, client, logger)
	structurer := llm.NewStructurer(client, cfg.TextModel, opts, logger)
	return NewPipeline(logger, extractor, structurer)
}

// ProcessFile validates path, then runs the chain on the image it names.
// A missing file fails before any model is called. A nil sink skips persistence.
func (p *Pipeline) ProcessFile(ctx context.Context, path string, sink export.Sink) (*Result, error) {
	ctx, rid := common.EnsureRequestID(ctx)
	img, err := ocr.LoadImage(path)
	if err != nil {
		p.Logger.Error("pipeline.validate.failed", "req_id", rid, "source", path, "error", err)
		return nil, err
	}
	return p.ProcessImage(ctx, img, sink)
}

// ProcessImage runs the chain on an image already in memory. Stages run in
// order and the first failure ends the run with nothing persisted.
func (p *Pipeline) ProcessImage(ctx context.Context, img ocr.Image, sink export.Sink) (*Result, error) {
	start := time.Now()
	ctx, rid := common.EnsureRequestID(ctx)
	res := &Result{RequestID: rid, Source: img.Source}

	fail := func(stage constants.Stage, err error) (*Result, error) {
		p.Logger.Error("pipeline."+string(stage)+".failed",
			"req_id", rid,
			"source", img.Source,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	if len(img.Data) == 0 {
		return fail(constants.StageValidate, common.NewAppError(common.CodeInvalidInput, "empty image: "+img.Source, nil))
	}
	p.Logger.Info("pipeline.start", "req_id", rid, "source", img.Source, "format", img.Format)

	ext, err := p.Extractor.Extract(ctx, img)
	if err != nil {
		return fail(constants.StageExtract, err)
	}
	res.Text = ext.Text
	res.Timings.Extract = time.Since(start)

	structStart := time.Now()
	answer, err := p.Structurer.Structure(ctx, ext.Text)
	if err != nil {
		return fail(constants.StageStructure, err)
	}
	res.Response = answer
	res.Timings.Structure = time.Since(structStart)

	rec, err := llm.RecoverJSON(answer)
	if err != nil {
		return fail(constants.StageRecover, err)
	}
	res.Fields = rec.Fields
	res.Strategy = rec.Strategy
	p.checkSchema(rid, rec)

	res.Row = record.Build(rec.Fields)

	if sink != nil {
		err := sink.Write(ctx, export.Record{Source: img.Source, Row: res.Row, Fields: rec.Fields})
		if err != nil {
			return fail(constants.StagePersist, common.NewAppError(common.CodePersistFailed, "could not write to "+sink.String(), err))
		}
		res.Sink = sink.String()
	}

	res.Timings.Total = time.Since(start)
	p.Logger.Info("pipeline.ok",
		"req_id", rid,
		"source", img.Source,
		"strategy", rec.Strategy,
		"filled", filledCount(res.Row),
		"sink", res.Sink,
		"extract_ms", res.Timings.Extract.Milliseconds(),
		"structure_ms", res.Timings.Structure.Milliseconds(),
		"elapsed_ms", res.Timings.Total.Milliseconds(),
	)
	return res, nil
}

// checkSchema only warns: the row builder stringifies whatever it gets.
func (p *Pipeline) checkSchema(rid string, rec llm.Recovery) {
	if p.schema == nil {
		return
	}
	if err := llm.ValidateFields(p.schema, rec.Fields); err != nil {
		p.Logger.Warn("pipeline.recover.schema_mismatch", "req_id", rid, "strategy", rec.Strategy, "error", err)
	}
}

func filledCount(r record.Row) int {
	n := 0
	for _, v := range r.Values() {
		if v != nil {
			n++
		}
	}
	return n
}

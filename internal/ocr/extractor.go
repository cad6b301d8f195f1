package ocr

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/certidao-ocr/internal/common"
	"github.com/joseph-ayodele/certidao-ocr/internal/llm"
)

type Config struct {
	Model     string      // vision-capable model id
	Options   llm.Options // temperature 0 and a bounded num_ctx by default
	Normalize bool        // apply Normalize to the model output
}

type ExtractionResult struct {
	Text     string
	Model    string
	Duration time.Duration
}

// Extractor reads the visible text of a scan through a vision model.
type Extractor struct {
	cfg    Config
	client llm.Completer
	logger *slog.Logger
}

func NewExtractor(cfg Config, client llm.Completer, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{cfg: cfg, client: client, logger: logger}
}

// Extract issues one vision request with the scan attached. Collaborator
// errors come back as common.ErrExtractionFailed; there is no retry.
func (e *Extractor) Extract(ctx context.Context, img Image) (ExtractionResult, error) {
	start := time.Now()
	rid := common.RequestIDFromContext(ctx)
	encoded := img.Base64()

	e.logger.Info("ocr.extract.start",
		"req_id", rid,
		"source", img.Source,
		"format", img.Format,
		"transcoded", img.Transcoded,
		"base64_bytes", len(encoded),
		"model", e.cfg.Model,
		"num_ctx", e.cfg.Options.NumCtx,
	)

	msgs := []llm.Message{{
		Role:    "user",
		Content: llm.ExtractionInstruction,
		Images:  []string{encoded},
	}}
	out, err := e.client.Complete(ctx, e.cfg.Model, msgs, e.cfg.Options)
	if err != nil {
		e.logger.Error("ocr.extract.error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return ExtractionResult{Model: e.cfg.Model}, common.NewAppError(common.CodeExtractionFailed, "vision model call failed", err)
	}

	text := strings.TrimSpace(out)
	if e.cfg.Normalize {
		text = Normalize(text)
	}
	res := ExtractionResult{Text: text, Model: e.cfg.Model, Duration: time.Since(start)}
	e.logger.Info("ocr.extract.ok",
		"req_id", rid,
		"chars", len(text),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

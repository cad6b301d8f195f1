package llm

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/certidao-ocr/internal/common"
)

// Structurer asks a text-only model to reformat extracted text as a JSON object.
type Structurer struct {
	client Completer
	model  string
	opts   Options
	logger *slog.Logger
}

func NewStructurer(client Completer, model string, opts Options, logger *slog.Logger) *Structurer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Structurer{client: client, model: model, opts: opts, logger: logger}
}

// Structure returns the trimmed model answer verbatim. It is expected, not
// guaranteed, to contain JSON; RecoverJSON deals with the rest.
func (s *Structurer) Structure(ctx context.Context, text string) (string, error) {
	start := time.Now()
	rid := common.RequestIDFromContext(ctx)
	prompt := BuildStructuringPrompt(text)

	s.logger.Info("llm.structure.start",
		"req_id", rid,
		"model", s.model,
		"temp", s.opts.Temperature,
		"num_ctx", s.opts.NumCtx,
		"text_len", len(text),
		"prompt_len", len(prompt),
	)

	out, err := s.client.Complete(ctx, s.model, []Message{{Role: "user", Content: prompt}}, s.opts)
	if err != nil {
		s.logger.Error("llm.structure.error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", common.NewAppError(common.CodeStructuringFailed, "text model call failed", err)
	}

	out = strings.TrimSpace(out)
	s.logger.Info("llm.structure.ok",
		"req_id", rid,
		"response_len", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

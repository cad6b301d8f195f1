package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/certidao-ocr/internal/common"
	"github.com/joseph-ayodele/certidao-ocr/internal/llm"
	"github.com/joseph-ayodele/certidao-ocr/internal/llm/ollama"
	"github.com/joseph-ayodele/certidao-ocr/internal/llm/vertex"
)

// NewCompleter returns the inference client selected by cfg.Provider and a
// func releasing it.
func NewCompleter(ctx context.Context, cfg common.LLMConfig, logger *slog.Logger) (llm.Completer, func() error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Provider {
	case "", "ollama":
		c := ollama.NewClient(ollama.Config{Host: cfg.Host, Timeout: cfg.Timeout}, logger)
		logger.Info("llm.provider", "provider", "ollama", "host", c.Host())
		return c, func() error { return nil }, nil
	case "vertex":
		c, err := vertex.NewClient(ctx, cfg.VertexProject, cfg.VertexRegion, logger)
		if err != nil {
			return nil, nil, common.NewAppError(common.CodeConfigError, "vertex client", err)
		}
		logger.Info("llm.provider", "provider", "vertex", "project", cfg.VertexProject, "region", cfg.VertexRegion)
		return c, c.Close, nil
	default:
		return nil, nil, common.NewAppError(common.CodeConfigError, fmt.Sprintf("unknown inference provider %q", cfg.Provider), nil)
	}
}

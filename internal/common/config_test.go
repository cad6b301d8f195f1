package common

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"INFERENCE_PROVIDER", "OLLAMA_HOST", "VISION_MODEL", "TEXT_MODEL", "LLM_NUM_CTX", "LLM_TIMEOUT", "NORMALIZE_TEXT"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig()
	if cfg.LLM.Provider != "ollama" || cfg.LLM.Host != "http://localhost:11434" {
		t.Errorf("llm = %+v", cfg.LLM)
	}
	if cfg.LLM.VisionModel != "llama3.2-vision" || cfg.LLM.TextModel != "llama3" {
		t.Errorf("models = %q / %q", cfg.LLM.VisionModel, cfg.LLM.TextModel)
	}
	if cfg.LLM.NumCtx != 2048 || cfg.LLM.Timeout != 5*time.Minute {
		t.Errorf("decoding = %+v", cfg.LLM)
	}
	if cfg.LLM.NormalizeText {
		t.Error("normalization should be off by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("INFERENCE_PROVIDER", "Vertex")
	t.Setenv("VERTEX_PROJECT_ID", "cartorio-prod")
	t.Setenv("LLM_NUM_CTX", "8192")
	t.Setenv("LLM_TIMEOUT", "90s")
	t.Setenv("NORMALIZE_TEXT", "true")
	t.Setenv("DB_MAX_CONNS", "not-a-number")

	cfg := LoadConfig()
	if cfg.LLM.Provider != "vertex" || cfg.LLM.VertexProject != "cartorio-prod" {
		t.Errorf("llm = %+v", cfg.LLM)
	}
	if cfg.LLM.NumCtx != 8192 || cfg.LLM.Timeout != 90*time.Second || !cfg.LLM.NormalizeText {
		t.Errorf("llm = %+v", cfg.LLM)
	}
	if cfg.Store.MaxConns != 10 {
		t.Errorf("bad int should fall back to default, got %d", cfg.Store.MaxConns)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := &Config{LLM: LLMConfig{Provider: "ollama", Host: "localhost:11434", NumCtx: 0}}
	err := cfg.Validate()
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
	for _, field := range []string{"VISION_MODEL", "TEXT_MODEL", "LLM_NUM_CTX", "OLLAMA_HOST"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error does not mention %s: %v", field, err)
		}
	}
}

func TestValidateUnknownProvider(t *testing.T) {
	cfg := &Config{LLM: LLMConfig{Provider: "openai", VisionModel: "v", TextModel: "t", NumCtx: 1}}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "INFERENCE_PROVIDER") {
		t.Fatalf("unexpected error: %v", err)
	}
}

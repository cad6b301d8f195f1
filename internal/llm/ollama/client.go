package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/certidao-ocr/internal/llm"
)

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []llm.Message `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  chatOptions   `json:"options"`
}

type chatOptions struct {
	Temperature float32 `json:"temperature"`
	NumCtx      int     `json:"num_ctx,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done            bool   `json:"done"`
	DoneReason      string `json:"done_reason"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
	Error           string `json:"error"`
}

// Complete implements llm.Completer against Ollama's native /api/chat endpoint.
func (c *Client) Complete(ctx context.Context, model string, messages []llm.Message, opts llm.Options) (string, error) {
	body := chatRequest{
		Model:    model,
		Messages: messages,
		Stream:   false,
		Options: chatOptions{
			Temperature: opts.Temperature,
			NumCtx:      opts.NumCtx,
		},
	}

	raw, status, err := llm.SendJSON(ctx, c.httpClient, c.cfg.Host+"/api/chat", body, nil, c.log)
	if err != nil {
		if msg := errorMessage(raw); msg != "" {
			return "", fmt.Errorf("ollama status %d: %s", status, msg)
		}
		return "", fmt.Errorf("ollama chat: %w", err)
	}

	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	if cr.Error != "" {
		return "", fmt.Errorf("ollama error: %s", cr.Error)
	}

	c.log.Debug("ollama.chat.ok",
		"model", cr.Model,
		"done_reason", cr.DoneReason,
		"prompt_tokens", cr.PromptEvalCount,
		"completion_tokens", cr.EvalCount,
	)
	return cr.Message.Content, nil
}

func errorMessage(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(raw))
}

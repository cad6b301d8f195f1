package vertex

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"cloud.google.com/go/vertexai/genai"

	"github.com/joseph-ayodele/certidao-ocr/internal/llm"
)

// Client implements llm.Completer on Vertex AI Gemini models.
type Client struct {
	base   *genai.Client
	logger *slog.Logger
}

// NewClient creates a Vertex AI client for the given project and region.
func NewClient(ctx context.Context, projectID, region string, logger *slog.Logger) (*Client, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("vertex: projectID and region cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	base, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}
	return &Client{base: base, logger: logger}, nil
}

func (c *Client) Close() error {
	if c.base != nil {
		return c.base.Close()
	}
	return nil
}

// Complete sends all user turns as one content request. System turns become
// the model's system instruction. NumCtx has no Gemini counterpart.
func (c *Client) Complete(ctx context.Context, model string, messages []llm.Message, opts llm.Options) (string, error) {
	gm := c.base.GenerativeModel(model)
	gm.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr[float32](opts.Temperature),
	}

	parts, system, err := toParts(messages)
	if err != nil {
		return "", err
	}
	if len(system) > 0 {
		gm.SystemInstruction = &genai.Content{Parts: system}
	}

	resp, err := gm.GenerateContent(ctx, parts...)
	if err != nil {
		c.logger.Error("vertex.generate.error", "model", model, "error", err)
		return "", fmt.Errorf("failed to generate content from gemini: %w", err)
	}
	return responseText(resp), nil
}

func toParts(messages []llm.Message) (parts, system []genai.Part, err error) {
	for _, m := range messages {
		if m.Role == "system" {
			system = append(system, genai.Text(m.Content))
			continue
		}
		for _, img := range m.Images {
			data, err := base64.StdEncoding.DecodeString(img)
			if err != nil {
				return nil, nil, fmt.Errorf("decode image: %w", err)
			}
			parts = append(parts, genai.ImageData(imageFormat(data), data))
		}
		if m.Content != "" {
			parts = append(parts, genai.Text(m.Content))
		}
	}
	if len(parts) == 0 {
		return nil, nil, fmt.Errorf("vertex: no content to send")
	}
	return parts, system, nil
}

// imageFormat returns the subtype genai.ImageData expects ("png", "jpeg").
func imageFormat(data []byte) string {
	mt := http.DetectContentType(data)
	if sub, ok := strings.CutPrefix(mt, "image/"); ok {
		return sub
	}
	return "png"
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}

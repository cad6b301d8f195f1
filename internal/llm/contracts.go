package llm

import "context"

// Message is one chat turn sent to the inference server.
type Message struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"` // standard base64, no data: prefix
}

// Options are the decoding knobs shared by every call.
type Options struct {
	Temperature float32 `json:"temperature"`
	NumCtx      int     `json:"num_ctx,omitempty"`
}

// Completer is the inference collaborator: one request, one text completion.
type Completer interface {
	Complete(ctx context.Context, model string, messages []Message, opts Options) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, model string, messages []Message, opts Options) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, model string, messages []Message, opts Options) (string, error) {
	return f(ctx, model, messages, opts)
}

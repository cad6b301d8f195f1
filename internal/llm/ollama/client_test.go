package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/joseph-ayodele/certidao-ocr/internal/common"
	"github.com/joseph-ayodele/certidao-ocr/internal/llm"
)

func TestCompleteWireFormat(t *testing.T) {
	var body map[string]any
	var reqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/chat" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		reqID = r.Header.Get("X-Request-ID")
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = w.Write([]byte(`{"model":"llama3.2-vision","message":{"role":"assistant","content":"MATRÍCULA 1"},"done":true}`))
	}))
	defer srv.Close()

	c := NewClient(Config{Host: srv.URL + "/"}, nil)
	ctx := common.WithRequestID(context.Background(), "rid-1")
	out, err := c.Complete(ctx, "llama3.2-vision", []llm.Message{{
		Role:    "user",
		Content: "read",
		Images:  []string{"aGVsbG8="},
	}}, llm.Options{Temperature: 0, NumCtx: 2048})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != "MATRÍCULA 1" {
		t.Errorf("out = %q", out)
	}
	if reqID != "rid-1" {
		t.Errorf("X-Request-ID = %q", reqID)
	}
	if body["model"] != "llama3.2-vision" || body["stream"] != false {
		t.Errorf("unexpected body: %v", body)
	}
	opts := body["options"].(map[string]any)
	if opts["temperature"] != float64(0) || opts["num_ctx"] != float64(2048) {
		t.Errorf("options = %v", opts)
	}
	msg := body["messages"].([]any)[0].(map[string]any)
	if imgs := msg["images"].([]any); len(imgs) != 1 || imgs[0] != "aGVsbG8=" {
		t.Errorf("images = %v", msg["images"])
	}
}

func TestCompleteOmitsEmptyImages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]json.RawMessage
		_ = json.NewDecoder(r.Body).Decode(&raw)
		if strings.Contains(string(raw["messages"]), "images") {
			t.Errorf("text request carries images: %s", raw["messages"])
		}
		_, _ = w.Write([]byte(`{"message":{"content":"{}"}}`))
	}))
	defer srv.Close()

	_, err := NewClient(Config{Host: srv.URL}, nil).Complete(context.Background(), "llama3", []llm.Message{{Role: "user", Content: "x"}}, llm.Options{})
	if err != nil {
		t.Fatal(err)
	}
}

func TestCompleteSurfacesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"llama3\" not found, try pulling it first"}`))
	}))
	defer srv.Close()

	_, err := NewClient(Config{Host: srv.URL}, nil).Complete(context.Background(), "llama3", nil, llm.Options{})
	if err == nil || !strings.Contains(err.Error(), "not found, try pulling it first") || !strings.Contains(err.Error(), "404") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewClientHostFallback(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "http://gpu-box:11434/")
	if got := NewClient(Config{}, nil).Host(); got != "http://gpu-box:11434" {
		t.Errorf("host = %q", got)
	}
	t.Setenv("OLLAMA_HOST", "")
	if got := NewClient(Config{}, nil).Host(); got != "http://localhost:11434" {
		t.Errorf("host = %q", got)
	}
}

package ollama

import (
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joseph-ayodele/certidao-ocr/constants"
)

// Config for the Ollama client.
type Config struct {
	Host    string        // if empty, falls back to env OLLAMA_HOST, then http://localhost:11434
	Timeout time.Duration // http client timeout; vision calls on CPU can take minutes
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Host == "" {
		cfg.Host = os.Getenv("OLLAMA_HOST")
	}
	if cfg.Host == "" {
		cfg.Host = constants.DefaultOllamaHost
	}
	cfg.Host = strings.TrimRight(cfg.Host, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger,
	}
}

// Host returns the server base URL in use.
func (c *Client) Host() string { return c.cfg.Host }

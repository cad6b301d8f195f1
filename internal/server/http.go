package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/certidao-ocr/internal/common"
	"github.com/joseph-ayodele/certidao-ocr/internal/export"
	"github.com/joseph-ayodele/certidao-ocr/internal/ocr"
)

// MaxUploadBytes caps the multipart image size.
const MaxUploadBytes = 32 << 20

type httpHandler struct {
	proc   ImageProcessor
	sink   export.Sink
	logger *slog.Logger
}

// NewRouter serves POST /v1/certidoes (multipart field "image") and GET /healthz.
func NewRouter(proc ImageProcessor, sink export.Sink, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	h := &httpHandler{proc: proc, sink: sink, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery(), h.requestLog)
	r.MaxMultipartMemory = MaxUploadBytes

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	v1 := r.Group("/v1")
	v1.POST("/certidoes", h.extract)
	return r
}

func (h *httpHandler) requestLog(c *gin.Context) {
	start := time.Now()
	ctx := c.Request.Context()
	if hdr := c.GetHeader("X-Request-ID"); hdr != "" {
		ctx = common.WithRequestID(ctx, hdr)
	}
	ctx, rid := common.EnsureRequestID(ctx)
	c.Request = c.Request.WithContext(ctx)
	c.Header("X-Request-ID", rid)
	c.Next()
	h.logger.Info("http.request",
		"req_id", rid,
		"method", c.Request.Method,
		"path", c.FullPath(),
		"status", c.Writer.Status(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
}

func (h *httpHandler) extract(c *gin.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read image"})
		return
	}
	if len(data) > MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large"})
		return
	}

	img, err := ocr.NewImage(filepath.Base(header.Filename), data)
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}
	res, err := h.proc.ProcessImage(c.Request.Context(), img, h.sink)
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, ResultMap(res))
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrFileNotFound):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrExtractionFailed), errors.Is(err, common.ErrStructuringFailed):
		return http.StatusBadGateway
	case errors.Is(err, common.ErrNoJSONFound), errors.Is(err, common.ErrJSONParse):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

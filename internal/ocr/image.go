package ocr

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"github.com/joseph-ayodele/certidao-ocr/constants"
	"github.com/joseph-ayodele/certidao-ocr/internal/common"
)

// Image is a scan ready for transport. Data holds the bytes actually sent.
type Image struct {
	Source     string // path or object name, for logs
	Format     constants.ImageFormat
	Data       []byte
	Transcoded bool // true when Data is a PNG re-encoding of the original
}

// Base64 encodes Data with standard base64.
func (img Image) Base64() string {
	return base64.StdEncoding.EncodeToString(img.Data)
}

// MIMEType of Data.
func (img Image) MIMEType() string {
	if img.Transcoded {
		return constants.PNG.MIMEType()
	}
	return img.Format.MIMEType()
}

// LoadImage reads the scan at path. A missing path (or a directory) fails
// with common.ErrFileNotFound.
func LoadImage(path string) (Image, error) {
	st, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Image{}, common.NewAppError(common.CodeFileNotFound, "file not found: "+path, err)
		}
		return Image{}, common.NewAppError(common.CodeInvalidInput, "cannot stat "+path, err)
	}
	if st.IsDir() {
		return Image{}, common.NewAppError(common.CodeFileNotFound, "not a file: "+path, nil)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Image{}, common.NewAppError(common.CodeInvalidInput, "read "+path, err)
	}
	return NewImage(path, b)
}

// NewImage wraps in-memory bytes. TIFF, BMP and WebP are re-encoded as PNG;
// every other input is passed through unchanged. When re-encoding fails the
// original bytes are sent as they are and the format is re-read from content.
func NewImage(source string, data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, common.NewAppError(common.CodeInvalidInput, "empty image: "+source, nil)
	}
	format := DetectFormat(source, data)
	img := Image{Source: source, Format: format, Data: data}
	if !format.NeedsTranscode() {
		return img, nil
	}
	out, err := transcodePNG(format, data)
	if err != nil {
		sniffed := constants.MapMIMEToFormat(http.DetectContentType(data))
		slog.Warn("ocr.transcode.failed",
			"source", source,
			"format", format,
			"sniffed", sniffed,
			"error", err,
		)
		if sniffed != "" {
			img.Format = sniffed
		}
		return img, nil
	}
	img.Data = out
	img.Transcoded = true
	return img, nil
}

// DetectFormat prefers the file extension and falls back to content sniffing.
func DetectFormat(source string, data []byte) constants.ImageFormat {
	if f := constants.MapExtToFormat(filepath.Ext(source)); f != "" {
		return f
	}
	if f := constants.MapMIMEToFormat(http.DetectContentType(data)); f != "" {
		return f
	}
	if isTIFF(data) {
		return constants.TIFF
	}
	return ""
}

func isTIFF(b []byte) bool {
	return len(b) >= 4 &&
		(bytes.Equal(b[:4], []byte("II*\x00")) || bytes.Equal(b[:4], []byte("MM\x00*")))
}

func transcodePNG(format constants.ImageFormat, data []byte) ([]byte, error) {
	var (
		img image.Image
		err error
	)
	r := bytes.NewReader(data)
	switch format {
	case constants.TIFF:
		img, err = tiff.Decode(r)
	case constants.BMP:
		img, err = bmp.Decode(r)
	case constants.WEBP:
		img, err = webp.Decode(r)
	default:
		return nil, fmt.Errorf("no decoder for %s", format)
	}
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

package constants

import (
	"mime"
	"strings"
)

// ImageFormat is the coarse format family of an input scan.
type ImageFormat string

const (
	JPEG ImageFormat = "JPEG"
	PNG  ImageFormat = "PNG"
	TIFF ImageFormat = "TIFF"
	BMP  ImageFormat = "BMP"
	WEBP ImageFormat = "WEBP"
)

// AllowedExtensions holds the default image extensions picked up by directory ingestion.
var AllowedExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"tif":  {},
	"tiff": {},
	"bmp":  {},
	"webp": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// MapExtToFormat maps a file extension to its image format, or "" if unknown.
func MapExtToFormat(ext string) ImageFormat {
	switch NormalizeExt(ext) {
	case "jpg", "jpeg":
		return JPEG
	case "png":
		return PNG
	case "tif", "tiff":
		return TIFF
	case "bmp":
		return BMP
	case "webp":
		return WEBP
	default:
		return ""
	}
}

// MapMIMEToFormat maps a sniffed content type to an image format, or "".
func MapMIMEToFormat(mt string) ImageFormat {
	if base, _, err := mime.ParseMediaType(mt); err == nil {
		mt = base
	}
	switch strings.ToLower(mt) {
	case "image/jpeg":
		return JPEG
	case "image/png":
		return PNG
	case "image/tiff":
		return TIFF
	case "image/bmp", "image/x-ms-bmp":
		return BMP
	case "image/webp":
		return WEBP
	default:
		return ""
	}
}

// MIMEType returns the canonical content type of a format.
func (f ImageFormat) MIMEType() string {
	switch f {
	case JPEG:
		return "image/jpeg"
	case PNG:
		return "image/png"
	case TIFF:
		return "image/tiff"
	case BMP:
		return "image/bmp"
	case WEBP:
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

// NeedsTranscode reports whether the vision server needs the scan re-encoded as PNG.
func (f ImageFormat) NeedsTranscode() bool {
	return f == TIFF || f == BMP || f == WEBP
}

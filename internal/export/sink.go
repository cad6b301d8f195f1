package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"github.com/joseph-ayodele/certidao-ocr/constants"
	"github.com/joseph-ayodele/certidao-ocr/internal/common"
	"github.com/joseph-ayodele/certidao-ocr/internal/record"
)

// Record is one pipeline result headed for a sink.
type Record struct {
	Source string
	Row    record.Row
	Fields map[string]any // recovered mapping, kept by sinks that store raw JSON
}

// Sink persists records. File-like sinks write all given records as one file.
type Sink interface {
	Write(ctx context.Context, recs ...Record) error
	Close() error
	String() string
}

// Format of a file-like destination.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatFor picks XLSX for .xlsx names and CSV otherwise.
func FormatFor(name string) Format {
	if constants.NormalizeExt(path.Ext(name)) == "xlsx" {
		return FormatXLSX
	}
	return FormatCSV
}

// Encode renders records as a CSV or XLSX document with a header row.
func Encode(format Format, recs []Record) ([]byte, error) {
	rows := make([]record.Row, len(recs))
	for i, r := range recs {
		rows[i] = r.Row
	}
	switch format {
	case FormatXLSX:
		return EncodeXLSX(rows)
	default:
		var buf bytes.Buffer
		if err := record.WriteCSV(&buf, rows...); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
}

// Deps carries what remote sinks need to connect.
type Deps struct {
	Logger  *slog.Logger
	Store   common.StoreConfig
	Storage common.StorageConfig
}

// Open returns the sink for a destination:
//
//	s3://bucket/key.csv           S3 / R2 object
//	gs://bucket/key.xlsx          GCS object
//	firestore://project/coll      Firestore documents
//	postgres://…, sqlite://…, *.db  record store
//	anything else                 local file (CSV unless .xlsx)
func Open(ctx context.Context, dest string, deps Deps) (Sink, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	dest = strings.TrimSpace(dest)
	if dest == "" {
		return nil, common.NewAppError(common.CodeInvalidInput, "empty destination", nil)
	}

	switch {
	case strings.HasPrefix(dest, "s3://"):
		bucket, key, err := splitBucketURI(dest)
		if err != nil {
			return nil, err
		}
		return NewS3Sink(ctx, deps.Storage, bucket, key, deps.Logger)
	case strings.HasPrefix(dest, "gs://"):
		bucket, key, err := splitBucketURI(dest)
		if err != nil {
			return nil, err
		}
		return NewGCSSink(ctx, bucket, key, deps.Logger)
	case strings.HasPrefix(dest, "firestore://"):
		project, collection, err := splitBucketURI(dest)
		if err != nil {
			return nil, err
		}
		return NewFirestoreSink(ctx, project, collection, deps.Logger)
	case IsStoreDSN(dest):
		cfg := deps.Store
		cfg.DSN = dest
		return NewStoreSink(ctx, cfg, deps.Logger)
	default:
		return NewFileSink(dest, deps.Logger), nil
	}
}

// IsStoreDSN reports whether dest names a SQL database rather than a file.
func IsStoreDSN(dest string) bool {
	lower := strings.ToLower(dest)
	for _, p := range []string{"postgres://", "postgresql://", "sqlite://", "file:"} {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	switch constants.NormalizeExt(path.Ext(lower)) {
	case "db", "sqlite", "sqlite3":
		return true
	}
	return false
}

func splitBucketURI(uri string) (string, string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", common.NewAppError(common.CodeInvalidInput, "bad destination "+uri, err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", common.NewAppError(common.CodeInvalidInput, fmt.Sprintf("destination %q needs both a bucket and a key", uri), nil)
	}
	return u.Host, key, nil
}

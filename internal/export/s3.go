package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/joseph-ayodele/certidao-ocr/internal/common"
)

// S3Sink uploads the encoded document to an S3-compatible bucket (AWS S3, R2, MinIO).
type S3Sink struct {
	client *s3.Client
	bucket string
	key    string
	format Format
	logger *slog.Logger
}

func NewS3Sink(ctx context.Context, cfg common.StorageConfig, bucket, key string, logger *slog.Logger) (*S3Sink, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.S3Region)}
	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Sink{client: client, bucket: bucket, key: key, format: FormatFor(key), logger: logger}, nil
}

func (s *S3Sink) String() string { return "s3://" + s.bucket + "/" + s.key }

func (s *S3Sink) Close() error { return nil }

func (s *S3Sink) Write(ctx context.Context, recs ...Record) error {
	start := time.Now()
	data, err := Encode(s.format, recs)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.format, err)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &s.key,
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType(s.format)),
	})
	if err != nil {
		s.logger.Error("export.s3.error", "bucket", s.bucket, "key", s.key, "error", err)
		return fmt.Errorf("put s3 object: %w", err)
	}
	s.logger.Info("export.s3.ok",
		"bucket", s.bucket,
		"key", s.key,
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

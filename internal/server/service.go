package server

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/certidao-ocr/internal/common"
	"github.com/joseph-ayodele/certidao-ocr/internal/export"
	"github.com/joseph-ayodele/certidao-ocr/internal/llm"
	"github.com/joseph-ayodele/certidao-ocr/internal/ocr"
	"github.com/joseph-ayodele/certidao-ocr/internal/pipeline"
)

// ImageProcessor is the part of the pipeline the transports need.
type ImageProcessor interface {
	ProcessImage(ctx context.Context, img ocr.Image, sink export.Sink) (*pipeline.Result, error)
}

type CertidaoService struct {
	proc   ImageProcessor
	sink   export.Sink // nil: results are returned, not stored
	logger *zap.Logger
}

func NewCertidaoService(proc ImageProcessor, sink export.Sink, logger *zap.Logger) *CertidaoService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CertidaoService{proc: proc, sink: sink, logger: logger}
}

func (s *CertidaoService) Extract(ctx context.Context, req *wrapperspb.BytesValue) (*structpb.Struct, error) {
	start := time.Now()
	source := "grpc"
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(MetadataSource); len(v) > 0 && v[0] != "" {
			source = v[0]
		}
		if v := md.Get(MetadataRequestID); len(v) > 0 && v[0] != "" {
			ctx = common.WithRequestID(ctx, v[0])
		}
	}
	if len(req.GetValue()) == 0 {
		return nil, common.InvalidArgumentError("image is required")
	}

	img, err := ocr.NewImage(source, req.GetValue())
	if err != nil {
		s.logger.Warn("extract rejected", zap.String("source", source), zap.Error(err))
		return nil, common.ToStatus(err)
	}
	res, err := s.proc.ProcessImage(ctx, img, s.sink)
	if err != nil {
		s.logger.Warn("extract failed", zap.String("source", source), zap.Error(err))
		return nil, common.ToStatus(err)
	}

	out, err := ResultStruct(res)
	if err != nil {
		s.logger.Error("encode result failed", zap.String("request_id", res.RequestID), zap.Error(err))
		return nil, common.InternalErrorf("encode result: %v", err)
	}
	s.logger.Info("extract ok",
		zap.String("request_id", res.RequestID),
		zap.String("source", source),
		zap.String("strategy", string(res.Strategy)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

// ResultMap is the transport view of a result: row, fields, request_id and strategy.
func ResultMap(res *pipeline.Result) map[string]any {
	m := map[string]any{
		"row":        res.Row.Map(),
		"fields":     llm.PlainJSON(res.Fields),
		"request_id": res.RequestID,
		"strategy":   string(res.Strategy),
	}
	if res.Sink != "" {
		m["sink"] = res.Sink
	}
	return m
}

func ResultStruct(res *pipeline.Result) (*structpb.Struct, error) {
	return structpb.NewStruct(ResultMap(res))
}

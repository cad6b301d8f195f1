package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/certidao-ocr/internal/common"
	"github.com/joseph-ayodele/certidao-ocr/internal/export"
	"github.com/joseph-ayodele/certidao-ocr/internal/pipeline"
	"github.com/joseph-ayodele/certidao-ocr/internal/server"
)

func main() {
	// Logger
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	log := logger.Sugar()

	// Env
	common.LoadDotEnv()
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	slogger := common.NewLogger(os.Stdout)

	// Context with signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Inference client + pipeline
	client, closeClient, err := pipeline.NewCompleter(ctx, cfg.LLM, slogger)
	if err != nil {
		log.Fatalf("inference client: %v", err)
	}
	defer func() { _ = closeClient() }()
	proc := pipeline.NewFromConfig(cfg.LLM, client, slogger)

	// Optional record store
	var sink export.Sink
	if cfg.Store.DSN != "" {
		sink, err = export.NewStoreSink(ctx, cfg.Store, slogger)
		if err != nil {
			log.Fatalf("opening store: %v", err)
		}
		defer func() { _ = sink.Close() }()
		log.Infow("persisting results", "sink", sink.String())
	}

	// gRPC server
	grpcServer := grpc.NewServer()
	// Health service
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(server.CertidaoServiceName, healthpb.HealthCheckResponse_SERVING)
	// Reflection for grpcurl
	reflection.Register(grpcServer)

	// Business service
	server.RegisterCertidaoServiceServer(grpcServer, server.NewCertidaoService(proc, sink, logger))

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	log.Infof("gRPC serving on %s", cfg.Server.GRPCAddr)

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("grpc serve: %v", err)
		}
	}()

	// HTTP server
	gin.SetMode(gin.ReleaseMode)
	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           server.NewRouter(proc, sink, slogger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Infof("HTTP serving on %s", cfg.Server.HTTPAddr)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http serve: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	hs.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warnw("http shutdown", "error", err)
	}
	grpcServer.GracefulStop()
	fmt.Println("stopped.")
}

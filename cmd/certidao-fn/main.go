// Command certidao-fn serves the ExtractCertidao CloudEvent function with the
// Functions Framework. Deploy with a Cloud Storage "object finalized" trigger.
package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/joseph-ayodele/certidao-ocr/internal/common"
	"github.com/joseph-ayodele/certidao-ocr/internal/pipeline"
	"github.com/joseph-ayodele/certidao-ocr/internal/trigger"
)

var (
	handler *trigger.Handler
	initErr error
	once    sync.Once
)

func setup() {
	logger := common.NewLogger(os.Stdout)
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		initErr = err
		return
	}

	ctx := context.Background()
	client, _, err := pipeline.NewCompleter(ctx, cfg.LLM, logger)
	if err != nil {
		initErr = err
		return
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		initErr = fmt.Errorf("failed to create storage client: %w", err)
		return
	}
	handler = &trigger.Handler{
		Proc:         pipeline.NewFromConfig(cfg.LLM, client, logger),
		Objects:      trigger.GCSObjects{Client: storageClient},
		NewSink:      trigger.GCSSinks(storageClient, logger),
		OutputBucket: cfg.Storage.OutputBucket,
		OutputPrefix: cfg.Storage.OutputPrefix,
		Logger:       logger,
	}
}

// ExtractCertidao runs the pipeline on the uploaded object.
func ExtractCertidao(ctx context.Context, e cloudevents.Event) error {
	once.Do(setup)
	if initErr != nil {
		return initErr
	}
	return handler.Handle(ctx, e)
}

func init() {
	functions.CloudEvent("ExtractCertidao", ExtractCertidao)
}

func main() {
	common.LoadDotEnv()
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := funcframework.Start(port); err != nil {
		fmt.Fprintf(os.Stderr, "funcframework.Start: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/certidao-ocr/internal/common"
	"github.com/joseph-ayodele/certidao-ocr/internal/export"
	"github.com/joseph-ayodele/certidao-ocr/internal/ingest"
	"github.com/joseph-ayodele/certidao-ocr/internal/pipeline"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup always happens.
func run() int {
	// Parse CLI flags
	var (
		dir        = flag.String("dir", "", "directory to process certificate scans from (required)")
		out        = flag.String("out", "", "output destination (defaults to certidoes.csv in the parent directory)")
		workers    = flag.Int("workers", 2, "maximum scans processed at once")
		skipHidden = flag.Bool("skip-hidden", true, "skip hidden files and directories")
		watch      = flag.Bool("watch", false, "after the initial batch, keep watching -dir and process new scans")
		debounce   = flag.Duration("debounce", 2*time.Second, "quiet period before a new file is processed in -watch mode")
	)
	flag.Parse()

	// Validate required flags
	if *dir == "" {
		printError("Error: --dir is required\n")
		return 2
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(filepath.Clean(*dir)), "certidoes.csv")
	}

	// Setup logger
	logger := common.NewLogger(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	common.LoadDotEnv()
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		return 2
	}

	// Opened on the first write, so a batch with no successful scan leaves
	// the destination untouched.
	sink, err := export.OpenLazy(*out, export.Deps{Logger: logger, Store: cfg.Store, Storage: cfg.Storage})
	if err != nil {
		printError("Error: %v\n", err)
		return 2
	}
	defer func() { _ = sink.Close() }()

	paths, walkStats, err := ingest.ListImages(*dir, nil, *skipHidden)
	if err != nil {
		printError("Error: %v\n", err)
		return 1
	}
	logger.Info("batch.scan", "dir", *dir, "scanned", walkStats.Scanned, "matched", walkStats.Matched)

	client, closeClient, err := pipeline.NewCompleter(ctx, cfg.LLM, logger)
	if err != nil {
		printError("Error: %v\n", err)
		return 1
	}
	defer func() { _ = closeClient() }()
	proc := pipeline.NewFromConfig(cfg.LLM, client, logger)

	results, stats := ingest.RunBatch(ctx, proc, paths, *workers, logger)
	var recs []export.Record
	for _, r := range results {
		if r.Err != nil {
			printError("FAIL %s: %v\n", r.Path, r.Err)
			continue
		}
		recs = append(recs, export.Record{Source: r.Path, Row: r.Result.Row, Fields: r.Result.Fields})
	}
	if len(recs) > 0 {
		if err := sink.Write(ctx, recs...); err != nil {
			printError("Error: writing %s: %v\n", sink, err)
			return 1
		}
	}
	fmt.Printf("%d of %d scans processed, %d failed; rows written to %s\n", stats.Succeeded, stats.Matched, stats.Failed, sink)

	if *watch {
		watchDir(ctx, proc, sink, recs, *dir, *skipHidden, *debounce, logger)
	}
	if stats.Failed > 0 {
		return 1
	}
	return 0
}

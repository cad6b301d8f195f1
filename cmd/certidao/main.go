package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/joseph-ayodele/certidao-ocr/internal/common"
	"github.com/joseph-ayodele/certidao-ocr/internal/export"
	"github.com/joseph-ayodele/certidao-ocr/internal/pipeline"
	"github.com/joseph-ayodele/certidao-ocr/internal/record"
)

const rule = "================================================================================"

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
	common.LoadDotEnv()
	cfg := common.LoadConfig()

	var (
		host     = flag.String("host", cfg.LLM.Host, "Ollama server URL")
		output   = flag.String("output", "", "where to save the row: file path (.csv/.xlsx), s3://, gs://, firestore://, postgres:// or sqlite:// (optional)")
		showJSON = flag.Bool("show-json", false, "also print the structured JSON")
	)
	flag.Usage = func() {
		printError("usage: certidao [-host URL] [-output DEST] [-show-json] IMAGE\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		return 2
	}
	cfg.LLM.Host = *host

	logger := common.NewLogger(os.Stderr)
	if err := cfg.Validate(); err != nil {
		printError("\nERRO: %v\n", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// The destination is only checked here; it is opened by the first write,
	// after the scan has been read and structured.
	var sink export.Sink
	if *output != "" {
		lazy, err := export.OpenLazy(*output, export.Deps{Logger: logger, Store: cfg.Store, Storage: cfg.Storage})
		if err != nil {
			printError("\nERRO: %v\n", err)
			return 2
		}
		defer func() { _ = lazy.Close() }()
		sink = lazy
	}

	client, closeClient, err := pipeline.NewCompleter(ctx, cfg.LLM, logger)
	if err != nil {
		printError("\nERRO: %v\n", err)
		return 1
	}
	defer func() { _ = closeClient() }()

	p := pipeline.NewFromConfig(cfg.LLM, client, logger)
	res, err := p.ProcessFile(ctx, flag.Arg(0), sink)
	if err != nil {
		printError("\nERRO: %v\n", err)
		return 1
	}

	fmt.Println("\n" + rule)
	fmt.Println("RESULTADO:")
	fmt.Println(rule)
	renderRow(os.Stdout, res.Row)

	if *showJSON {
		fmt.Println("\n" + rule)
		fmt.Println("JSON ESTRUTURADO:")
		fmt.Println(rule)
		if err := printJSON(os.Stdout, res.Fields); err != nil {
			printError("\nERRO: %v\n", err)
			return 1
		}
	}
	if res.Sink != "" {
		fmt.Printf("\nSalvo em: %s\n", res.Sink)
	}

	fmt.Println("\n" + rule)
	fmt.Println("Processamento concluído com sucesso!")
	fmt.Println(rule)
	return 0
}

func renderRow(w io.Writer, row record.Row) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Campo", "Valor"})
	table.SetAutoWrapText(true)
	table.SetColWidth(70)
	cols := row.Columns()
	for i, v := range row.Strings("null") {
		table.Append([]string{cols[i], strings.TrimSpace(v)})
	}
	table.Render()
}

// printJSON keeps accents and symbols readable.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

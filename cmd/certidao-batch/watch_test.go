package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/joseph-ayodele/certidao-ocr/internal/common"
	"github.com/joseph-ayodele/certidao-ocr/internal/export"
	"github.com/joseph-ayodele/certidao-ocr/internal/ocr"
	"github.com/joseph-ayodele/certidao-ocr/internal/pipeline"
	"github.com/joseph-ayodele/certidao-ocr/internal/record"
	"github.com/joseph-ayodele/certidao-ocr/internal/repository"
)

// sourceExtractor transcribes a scan as its file name.
type sourceExtractor struct{}

func (sourceExtractor) Extract(_ context.Context, img ocr.Image) (ocr.ExtractionResult, error) {
	return ocr.ExtractionResult{Text: filepath.Base(img.Source)}, nil
}

type matriculaStructurer struct{}

func (matriculaStructurer) Structure(_ context.Context, text string) (string, error) {
	return fmt.Sprintf("```json\n{\"Matricula\": %q}\n```", text), nil
}

type recordingSink struct {
	mu     sync.Mutex
	writes [][]export.Record
	wrote  chan struct{}
}

func (s *recordingSink) Write(_ context.Context, recs ...export.Record) error {
	s.mu.Lock()
	s.writes = append(s.writes, append([]export.Record(nil), recs...))
	s.mu.Unlock()
	s.wrote <- struct{}{}
	return nil
}
func (s *recordingSink) Close() error   { return nil }
func (s *recordingSink) String() string { return "recording" }

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func testPipeline() *pipeline.Pipeline {
	return pipeline.NewPipeline(testLogger(), sourceExtractor{}, matriculaStructurer{})
}

// dropScan moves a finished file into dir so the watcher sees a single create.
func dropScan(t *testing.T, dir, name string) {
	t.Helper()
	staged := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(staged, []byte("scan bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(staged, filepath.Join(dir, name)); err != nil {
		t.Fatal(err)
	}
}

func startWatch(t *testing.T, sink export.Sink, seen []export.Record, dir string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		watchDir(ctx, testPipeline(), sink, seen, dir, true, 50*time.Millisecond, testLogger())
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	// let the watcher register the directory
	time.Sleep(100 * time.Millisecond)
}

func matriculas(recs []export.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i], _ = r.Row.Get("Matricula")
	}
	return out
}

func TestWatchDirRewritesFileSinksWithEveryRow(t *testing.T) {
	dir := t.TempDir()
	sink := &recordingSink{wrote: make(chan struct{}, 4)}
	initial := []export.Record{{Source: "first.png", Row: record.Build(map[string]any{"Matricula": "first.png"})}}
	startWatch(t, sink, initial, dir)

	for i, name := range []string{"a.png", "b.jpg"} {
		dropScan(t, dir, name)
		select {
		case <-sink.wrote:
		case <-time.After(3 * time.Second):
			t.Fatalf("no write after %s", name)
		}
		sink.mu.Lock()
		last := sink.writes[len(sink.writes)-1]
		sink.mu.Unlock()
		if len(last) != i+2 {
			t.Fatalf("write %d carried %v, want every row seen so far", i, matriculas(last))
		}
		if got := matriculas(last); got[0] != "first.png" || got[i+1] != name {
			t.Errorf("write %d rows = %v", i, got)
		}
	}
}

func TestWatchDirAppendsToStore(t *testing.T) {
	dir := t.TempDir()
	dsn := "sqlite://" + filepath.Join(t.TempDir(), "rows.db")
	sink, err := export.OpenLazy(dsn, export.Deps{Logger: testLogger(), Store: common.StoreConfig{DialTimeout: time.Second}})
	if err != nil {
		t.Fatal(err)
	}
	defer sink.Close()
	// rows from the initial batch are already stored and must not be inserted again
	initial := []export.Record{{Source: "first.png", Row: record.Build(map[string]any{"Matricula": "first.png"})}}
	startWatch(t, sink, initial, dir)

	dropScan(t, dir, "a.png")

	deadline := time.Now().Add(3 * time.Second)
	for {
		rows := listStored(t, dsn)
		if len(rows) == 1 {
			if v, _ := rows[0].Row.Get("Matricula"); v != "a.png" {
				t.Errorf("stored Matricula = %q", v)
			}
			return
		}
		if len(rows) > 1 || time.Now().After(deadline) {
			t.Fatalf("stored %d rows, want 1", len(rows))
		}
		time.Sleep(50 * time.Millisecond)
	}
}

// listStored reads the table from a second connection; it returns nil while
// the sink has not created it yet or holds the write lock.
func listStored(t *testing.T, dsn string) []repository.StoredRow {
	t.Helper()
	if _, err := os.Stat(strings.TrimPrefix(dsn, "sqlite://")); err != nil {
		return nil
	}
	store, err := repository.Open(context.Background(), repository.Config{DSN: dsn, DialTimeout: time.Second}, testLogger())
	if err != nil {
		return nil
	}
	defer store.Close()
	rows, err := store.ListRows(context.Background(), 0)
	if err != nil {
		return nil
	}
	return rows
}

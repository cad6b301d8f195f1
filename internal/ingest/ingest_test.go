package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/joseph-ayodele/certidao-ocr/internal/common"
	"github.com/joseph-ayodele/certidao-ocr/internal/export"
	"github.com/joseph-ayodele/certidao-ocr/internal/pipeline"
	"github.com/joseph-ayodele/certidao-ocr/internal/record"
)

func touch(t *testing.T, root string, rel ...string) {
	t.Helper()
	for _, r := range rel {
		p := filepath.Join(root, r)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestListImages(t *testing.T) {
	root := t.TempDir()
	touch(t, root,
		"b.PNG", "a.jpg", "notes.txt", "sub/c.tiff",
		".hidden.png", ".cache/d.png",
	)

	paths, stats, err := ListImages(root, nil, true)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(root, "a.jpg"),
		filepath.Join(root, "b.PNG"),
		filepath.Join(root, "sub", "c.tiff"),
	}
	if !slices.Equal(paths, want) {
		t.Errorf("paths = %v, want %v", paths, want)
	}
	if stats.Matched != 3 || stats.Scanned != 4 {
		t.Errorf("stats = %+v", stats)
	}

	paths, _, err = ListImages(root, []string{".png"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 3 {
		t.Errorf("png with hidden = %v", paths)
	}
}

func TestListImagesMissingRoot(t *testing.T) {
	_, _, err := ListImages(filepath.Join(t.TempDir(), "nope"), nil, false)
	if !errors.Is(err, common.ErrFileNotFound) {
		t.Fatalf("expected file not found, got %v", err)
	}
	_, _, err = ListImages(" ", nil, false)
	if !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

type fakeProcessor struct {
	inFlight, peak atomic.Int32
}

func (f *fakeProcessor) ProcessFile(_ context.Context, path string, sink export.Sink) (*pipeline.Result, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	if sink != nil {
		return nil, errors.New("batch runs must not persist")
	}
	if filepath.Base(path) == "bad.png" {
		return nil, common.NewAppError(common.CodeNoJSONFound, "prose", nil)
	}
	return &pipeline.Result{Source: path, Row: record.Build(map[string]any{"Matricula": filepath.Base(path)})}, nil
}

func TestRunBatchBoundsConcurrencyAndKeepsOrder(t *testing.T) {
	paths := []string{"a.png", "bad.png", "c.png", "d.png", "e.png", "f.png"}
	proc := &fakeProcessor{}
	results, stats := RunBatch(context.Background(), proc, paths, 2, nil)

	if peak := proc.peak.Load(); peak > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak)
	}
	if stats.Succeeded != 5 || stats.Failed != 1 {
		t.Errorf("stats = %+v", stats)
	}
	for i, r := range results {
		if r.Path != paths[i] {
			t.Errorf("result %d path = %q, want %q", i, r.Path, paths[i])
		}
	}
	if !errors.Is(results[1].Err, common.ErrNoJSONFound) || results[1].Result != nil {
		t.Errorf("bad.png = %+v", results[1])
	}
	if v, _ := results[0].Result.Row.Get("Matricula"); v != "a.png" {
		t.Errorf("a.png row = %q", v)
	}
}

func TestRunBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, stats := RunBatch(ctx, &fakeProcessor{}, []string{"a.png", "b.png"}, 1, nil)
	if stats.Failed != 2 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestStartWatcherInitialScan(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "a.png", "skip.txt")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, InitialScan: true}, nil)
	if err != nil {
		t.Fatal(err)
	}
	select {
	case p := <-events:
		if p != filepath.Join(root, "a.png") {
			t.Errorf("event = %q", p)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no initial event")
	}

	touch(t, root, "new.jpg")
	select {
	case p := <-events:
		if p != filepath.Join(root, "new.jpg") {
			t.Errorf("event = %q", p)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event for new file")
	}
}

func TestStartWatcherDebouncesWrites(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, Debounce: 300 * time.Millisecond}, nil)
	if err != nil {
		t.Fatal(err)
	}

	// a scanner writing in chunks: one create, several writes
	f, err := os.Create(filepath.Join(root, "scan.png"))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err := f.Write([]byte("chunk")); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	touch(t, root, "other.jpg", "notes.txt")

	var got []string
	timeout := time.After(3 * time.Second)
	for len(got) < 2 {
		select {
		case p := <-events:
			got = append(got, p)
		case <-timeout:
			t.Fatalf("timed out, got %v", got)
		}
	}
	slices.Sort(got)
	want := []string{filepath.Join(root, "other.jpg"), filepath.Join(root, "scan.png")}
	if !slices.Equal(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}

	select {
	case p := <-events:
		t.Fatalf("burst emitted more than once: %q", p)
	case <-time.After(600 * time.Millisecond):
	}
}

func TestStartWatcherNoRoots(t *testing.T) {
	if _, _, err := StartWatcher(context.Background(), WatchConfig{}, nil); err == nil {
		t.Fatal("expected error")
	}
}

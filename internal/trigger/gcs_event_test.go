package trigger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/joseph-ayodele/certidao-ocr/internal/common"
	"github.com/joseph-ayodele/certidao-ocr/internal/export"
	"github.com/joseph-ayodele/certidao-ocr/internal/llm"
	"github.com/joseph-ayodele/certidao-ocr/internal/ocr"
	"github.com/joseph-ayodele/certidao-ocr/internal/pipeline"
	"github.com/joseph-ayodele/certidao-ocr/internal/record"
)

func storageEvent(t *testing.T, data any) cloudevents.Event {
	t.Helper()
	e := cloudevents.NewEvent()
	e.SetID("evt-1")
	e.SetSource("//storage.googleapis.com/projects/_/buckets/scans")
	e.SetType("google.cloud.storage.object.v1.finalized")
	if err := e.SetData(cloudevents.ApplicationJSON, data); err != nil {
		t.Fatal(err)
	}
	return e
}

type memObjects map[string][]byte

func (m memObjects) ReadObject(_ context.Context, bucket, name string) ([]byte, error) {
	b, ok := m[bucket+"/"+name]
	if !ok {
		return nil, errors.New("object not found")
	}
	return b, nil
}

type stubProcessor struct {
	calls int
}

func (s *stubProcessor) ProcessImage(ctx context.Context, img ocr.Image, sink export.Sink) (*pipeline.Result, error) {
	s.calls++
	row := record.Build(map[string]any{"Matricula": "777", "Proprietario": img.Source})
	if err := sink.Write(ctx, export.Record{Source: img.Source, Row: row}); err != nil {
		return nil, err
	}
	return &pipeline.Result{Source: img.Source, Row: row, Strategy: llm.StrategyFenced, Sink: sink.String()}, nil
}

func newHandler(t *testing.T, proc ImageProcessor, objs memObjects) (*Handler, string) {
	t.Helper()
	dir := t.TempDir()
	return &Handler{
		Proc:         proc,
		Objects:      objs,
		OutputPrefix: "certidoes",
		NewSink: func(bucket, key string) export.Sink {
			return export.NewFileSink(filepath.Join(dir, bucket, key), nil)
		},
	}, dir
}

func TestDecodeStorageEvent(t *testing.T) {
	d, err := DecodeStorageEvent(storageEvent(t, map[string]string{"bucket": "scans", "name": "2024/m1.jpg"}))
	if err != nil {
		t.Fatal(err)
	}
	if d.Bucket != "scans" || d.Name != "2024/m1.jpg" {
		t.Errorf("decoded %+v", d)
	}
	_, err = DecodeStorageEvent(storageEvent(t, map[string]string{"bucket": "scans"}))
	if !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("expected invalid input, got %v", err)
	}
}

func TestHandleWritesCSV(t *testing.T) {
	proc := &stubProcessor{}
	h, dir := newHandler(t, proc, memObjects{"scans/2024/m1.jpg": []byte("\xff\xd8\xffjpeg")})

	if err := h.Handle(context.Background(), storageEvent(t, map[string]string{"bucket": "scans", "name": "2024/m1.jpg"})); err != nil {
		t.Fatalf("handle: %v", err)
	}
	out := filepath.Join(dir, "scans", "certidoes", "2024", "m1.jpg.csv")
	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	defer f.Close()
	rows, err := record.ReadCSV(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d", len(rows))
	}
	if v, _ := rows[0].Get("Proprietario"); v != "2024/m1.jpg" {
		t.Errorf("Proprietario = %q", v)
	}
}

func TestHandleSkips(t *testing.T) {
	proc := &stubProcessor{}
	h, _ := newHandler(t, proc, memObjects{})
	for _, name := range []string{"readme.txt", "certidoes/2024/m1.jpg.csv", "certidoes/loop.png"} {
		if err := h.Handle(context.Background(), storageEvent(t, map[string]string{"bucket": "scans", "name": name})); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
	if proc.calls != 0 {
		t.Errorf("processor called %d times", proc.calls)
	}
}

func TestHandleDownloadFailure(t *testing.T) {
	h, _ := newHandler(t, &stubProcessor{}, memObjects{})
	err := h.Handle(context.Background(), storageEvent(t, map[string]string{"bucket": "scans", "name": "gone.png"}))
	if err == nil {
		t.Fatal("expected error")
	}
}

package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/certidao-ocr/internal/llm"
)

// FirestoreSink stores one document per record in a collection.
type FirestoreSink struct {
	client     *firestore.Client
	project    string
	collection string
	logger     *slog.Logger
}

func NewFirestoreSink(ctx context.Context, projectID, collection string, logger *slog.Logger) (*FirestoreSink, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	return &FirestoreSink{client: client, project: projectID, collection: collection, logger: logger}, nil
}

func (s *FirestoreSink) String() string {
	return "firestore://" + s.project + "/" + s.collection
}

func (s *FirestoreSink) Close() error { return s.client.Close() }

func (s *FirestoreSink) Write(ctx context.Context, recs ...Record) error {
	start := time.Now()
	coll := s.client.Collection(s.collection)
	for _, rec := range recs {
		id := uuid.NewString()
		if _, err := coll.Doc(id).Set(ctx, firestoreDoc(rec, start)); err != nil {
			s.logger.Error("export.firestore.error", "collection", s.collection, "source", rec.Source, "error", err)
			return fmt.Errorf("set firestore doc: %w", err)
		}
		s.logger.Debug("export.firestore.doc", "id", id, "source", rec.Source)
	}
	s.logger.Info("export.firestore.ok",
		"collection", s.collection,
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func firestoreDoc(rec Record, now time.Time) map[string]any {
	doc := map[string]any{
		"source":     rec.Source,
		"row":        rec.Row.Map(),
		"created_at": now.UTC(),
	}
	if rec.Fields != nil {
		// firestore cannot encode json.Number
		doc["fields"] = llm.PlainJSON(rec.Fields)
	}
	return doc
}

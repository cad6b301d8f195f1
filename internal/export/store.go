package export

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/certidao-ocr/internal/common"
	"github.com/joseph-ayodele/certidao-ocr/internal/repository"
)

// StoreSink inserts records into the certidoes table.
type StoreSink struct {
	store  *repository.Store
	name   string
	logger *slog.Logger
}

// NewStoreSink opens the store and migrates the table.
func NewStoreSink(ctx context.Context, cfg common.StoreConfig, logger *slog.Logger) (*StoreSink, error) {
	store, err := repository.Open(ctx, repository.Config{
		DSN:         cfg.DSN,
		MaxConns:    cfg.MaxConns,
		MinConns:    cfg.MinConns,
		DialTimeout: cfg.DialTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return &StoreSink{store: store, name: store.Dialect(), logger: logger}, nil
}

func (s *StoreSink) String() string { return s.name + ":" + repository.TableName }

func (s *StoreSink) Close() error { return s.store.Close() }

func (s *StoreSink) Write(ctx context.Context, recs ...Record) error {
	for _, rec := range recs {
		id, err := s.store.InsertRow(ctx, rec.Source, rec.Row, rec.Fields)
		if err != nil {
			return err
		}
		s.logger.Info("export.store.ok", "id", id, "source", rec.Source)
	}
	return nil
}

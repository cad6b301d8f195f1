package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/certidao-ocr/constants"
	"github.com/joseph-ayodele/certidao-ocr/internal/record"
)

// TableName holds one row per processed certificate.
const TableName = "certidoes"

const (
	colID        = "id"
	colSource    = "source"
	colRawJSON   = "raw_json"
	colCreatedAt = "created_at"

	// fixed width so text ordering matches time ordering
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// StoredRow is a row read back from the store.
type StoredRow struct {
	ID        uuid.UUID
	Source    string
	Row       record.Row
	RawJSON   string
	CreatedAt time.Time
}

func fieldColumns() []string {
	out := make([]string, len(constants.Fields))
	for i, f := range constants.Fields {
		out[i] = constants.StorageColumn(f.Column)
	}
	return out
}

func allColumns() []string {
	cols := []string{colID, colSource}
	cols = append(cols, fieldColumns()...)
	return append(cols, colRawJSON, colCreatedAt)
}

// Migrate creates the certidoes table if it does not exist. The statement is
// plain SQL valid for both Postgres and SQLite; every column is TEXT.
func (s *Store) Migrate(ctx context.Context) error {
	query := createTableSQL()
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		s.logger.Error("store.migrate.error", "table", TableName, "error", err)
		return fmt.Errorf("migrate %s: %w", TableName, err)
	}
	s.logger.Info("store.migrate.ok", "table", TableName, "dialect", s.dialect)
	return nil
}

func createTableSQL() string {
	defs := []string{
		quoteIdent(colID) + " TEXT NOT NULL",
		quoteIdent(colSource) + " TEXT NOT NULL",
	}
	for _, c := range fieldColumns() {
		defs = append(defs, quoteIdent(c)+" TEXT")
	}
	defs = append(defs,
		quoteIdent(colRawJSON)+" TEXT",
		quoteIdent(colCreatedAt)+" TEXT NOT NULL",
		"PRIMARY KEY ("+quoteIdent(colID)+")",
	)
	return "CREATE TABLE IF NOT EXISTS " + quoteIdent(TableName) + " (" + strings.Join(defs, ", ") + ")"
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// InsertRow stores one row with its source and raw recovered mapping.
func (s *Store) InsertRow(ctx context.Context, source string, row record.Row, raw map[string]any) (uuid.UUID, error) {
	id := uuid.New()

	var rawJSON any
	if raw != nil {
		b, err := json.Marshal(raw)
		if err != nil {
			return uuid.Nil, fmt.Errorf("marshal raw json: %w", err)
		}
		rawJSON = string(b)
	}

	values := []any{id.String(), source}
	for _, v := range row.Values() {
		if v == nil {
			values = append(values, nil)
		} else {
			values = append(values, *v)
		}
	}
	values = append(values, rawJSON, time.Now().UTC().Format(timeLayout))

	query, args := s.builder().Insert(TableName).Columns(allColumns()...).Values(values...).Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		s.logger.Error("store.insert.error", "source", source, "error", err)
		return uuid.Nil, fmt.Errorf("insert %s: %w", TableName, err)
	}
	s.logger.Debug("store.insert.ok", "id", id, "source", source)
	return id, nil
}

// ListRows returns the newest rows first; limit <= 0 means no limit.
func (s *Store) ListRows(ctx context.Context, limit int) ([]StoredRow, error) {
	sel := s.builder().Select(allColumns()...).
		From(s.builder().Table(TableName)).
		OrderBy(entsql.Desc(colCreatedAt))
	if limit > 0 {
		sel = sel.Limit(limit)
	}
	query, args := sel.Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Error("store.list.error", "error", err)
		return nil, fmt.Errorf("list %s: %w", TableName, err)
	}
	defer func() { _ = rows.Close() }()

	var out []StoredRow
	for rows.Next() {
		sr, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", TableName, err)
	}
	return out, nil
}

func scanRow(rows *sql.Rows) (StoredRow, error) {
	var (
		id, source, createdAt string
		rawJSON               sql.NullString
	)
	cells := make([]sql.NullString, len(constants.Fields))

	dest := []any{&id, &source}
	for i := range cells {
		dest = append(dest, &cells[i])
	}
	dest = append(dest, &rawJSON, &createdAt)
	if err := rows.Scan(dest...); err != nil {
		return StoredRow{}, fmt.Errorf("scan %s: %w", TableName, err)
	}

	values := make([]*string, len(cells))
	for i, c := range cells {
		if c.Valid {
			values[i] = &c.String
		}
	}
	parsedID, err := uuid.Parse(id)
	if err != nil {
		return StoredRow{}, fmt.Errorf("scan %s: bad id %q: %w", TableName, id, err)
	}
	ts, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return StoredRow{}, fmt.Errorf("scan %s: bad created_at %q: %w", TableName, createdAt, err)
	}
	return StoredRow{
		ID:        parsedID,
		Source:    source,
		Row:       record.FromValues(values),
		RawJSON:   rawJSON.String,
		CreatedAt: ts,
	}, nil
}

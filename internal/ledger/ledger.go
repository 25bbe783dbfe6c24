// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger keeps a SQLite history of notebook conversions: which file
// was converted, its checksum, the variant, cell and output counts, and
// whether the run succeeded.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/ipynb-to-jekyll/pkg/types"
)

// ErrNotFound is returned when no record matches a lookup.
var ErrNotFound = errors.New("not found")

const defaultMaxResults = 50

// Store manages the ledger database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the ledger database at cfg.Path, creating the
// parent directory and schema as needed.
func NewStore(cfg types.LedgerConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("ledger path must not be empty")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS conversions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			notebook_path TEXT NOT NULL,
			checksum TEXT,
			variant TEXT NOT NULL,
			cells INTEGER NOT NULL DEFAULT 0,
			markdown INTEGER NOT NULL DEFAULT 0,
			code INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			outputs INTEGER NOT NULL DEFAULT 0,
			placeholders INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			error TEXT,
			converted_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_path ON conversions(notebook_path)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record inserts rec and returns its row ID.
func (s *Store) Record(ctx context.Context, rec types.ConversionRecord) (int64, error) {
	if rec.ConvertedAt.IsZero() {
		rec.ConvertedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO conversions
			(notebook_path, checksum, variant, cells, markdown, code, skipped, outputs, placeholders, status, error, converted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.NotebookPath, rec.Checksum, rec.Variant,
		rec.Stats.Cells, rec.Stats.Markdown, rec.Stats.Code, rec.Stats.Skipped,
		rec.Stats.Outputs, rec.Stats.Placeholders,
		string(rec.Status), rec.Error, rec.ConvertedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("recording conversion of %s: %w", rec.NotebookPath, err)
	}
	return res.LastInsertId()
}

// QueryOptions filters List results. Zero values match everything.
type QueryOptions struct {
	Path       string
	Status     types.ConversionStatus
	MaxResults int
}

// List returns matching records, newest first.
func (s *Store) List(ctx context.Context, opts QueryOptions) ([]types.ConversionRecord, error) {
	var where []string
	var args []any
	if opts.Path != "" {
		where = append(where, "notebook_path = ?")
		args = append(args, opts.Path)
	}
	if opts.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(opts.Status))
	}

	limit := opts.MaxResults
	if limit <= 0 {
		limit = s.maxResults
	}

	query := `SELECT ` + columns + ` FROM conversions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying conversions: %w", err)
	}
	defer rows.Close()

	var records []types.ConversionRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Latest returns the newest record for path, or ErrNotFound.
func (s *Store) Latest(ctx context.Context, path string) (types.ConversionRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+columns+` FROM conversions WHERE notebook_path = ? ORDER BY id DESC LIMIT 1`, path)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ConversionRecord{}, fmt.Errorf("conversion of %s: %w", path, ErrNotFound)
	}
	return rec, err
}

const columns = `id, notebook_path, checksum, variant, cells, markdown, code, skipped, outputs, placeholders, status, error, converted_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (types.ConversionRecord, error) {
	var (
		rec         types.ConversionRecord
		checksum    sql.NullString
		status      string
		errText     sql.NullString
		convertedAt string
	)
	err := sc.Scan(&rec.ID, &rec.NotebookPath, &checksum, &rec.Variant,
		&rec.Stats.Cells, &rec.Stats.Markdown, &rec.Stats.Code, &rec.Stats.Skipped,
		&rec.Stats.Outputs, &rec.Stats.Placeholders,
		&status, &errText, &convertedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("scanning conversion: %w", err)
	}
	rec.Checksum = checksum.String
	rec.Status = types.ConversionStatus(status)
	rec.Error = errText.String
	if t, err := time.Parse(time.RFC3339Nano, convertedAt); err == nil {
		rec.ConvertedAt = t
	}
	return rec, nil
}

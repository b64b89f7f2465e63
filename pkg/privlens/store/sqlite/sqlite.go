package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/privlens/pkg/privlens/internalerr"
	"github.com/cognicore/privlens/pkg/privlens/scan"
	"github.com/cognicore/privlens/pkg/privlens/store"
	"github.com/cognicore/privlens/pkg/privlens/vocab"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled and creates the
// schema if needed.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %v", path, internalerr.ErrStoreUnavailable, err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w: %v", path, internalerr.ErrStoreUnavailable, err)
	}

	// One writer at a time; the pragmas below then apply to every query.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS user_terms (
	category TEXT NOT NULL,
	term TEXT NOT NULL,
	cat_pos INTEGER NOT NULL,
	term_pos INTEGER NOT NULL,
	PRIMARY KEY(category, term)
);

CREATE TABLE IF NOT EXISTS reports (
	id TEXT PRIMARY KEY,
	title TEXT,
	url TEXT,
	created_at INTEGER NOT NULL,
	results TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS reports_created_at ON reports(created_at);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// UserTerms returns the stored user vocabulary in insertion order.
func (s *sqliteStore) UserTerms(ctx context.Context) (vocab.Table, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT category, term FROM user_terms
ORDER BY cat_pos, term_pos`)
	if err != nil {
		return vocab.Table{}, err
	}
	defer rows.Close()

	var cats []string
	terms := make(map[string][]string)
	for rows.Next() {
		var cat, term string
		if err := rows.Scan(&cat, &term); err != nil {
			return vocab.Table{}, err
		}
		if _, ok := terms[cat]; !ok {
			cats = append(cats, cat)
		}
		terms[cat] = append(terms[cat], term)
	}
	if err := rows.Err(); err != nil {
		return vocab.Table{}, err
	}
	return vocab.NewTable(cats, terms), nil
}

// SetUserTerms replaces the terms of a category. An empty list deletes it.
// A replaced category keeps its position.
func (s *sqliteStore) SetUserTerms(ctx context.Context, category string, terms []string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return fmt.Errorf("set user terms: empty category: %w", internalerr.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var catPos int64
	err = tx.QueryRowContext(ctx,
		`SELECT cat_pos FROM user_terms WHERE category = ? LIMIT 1`, category,
	).Scan(&catPos)
	if errors.Is(err, sql.ErrNoRows) {
		err = tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(cat_pos) + 1, 0) FROM user_terms`,
		).Scan(&catPos)
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_terms WHERE category = ?`, category); err != nil {
		return err
	}

	const stmt = `
INSERT INTO user_terms (category, term, cat_pos, term_pos)
VALUES (?, ?, ?, ?)
ON CONFLICT(category, term) DO NOTHING`

	pos := 0
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		res, err := tx.ExecContext(ctx, stmt, category, term, catPos, pos)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			pos++
		}
	}

	return tx.Commit()
}

// SaveReport inserts or replaces a report by ID.
func (s *sqliteStore) SaveReport(ctx context.Context, r store.SavedReport) error {
	if r.ID == "" {
		return fmt.Errorf("save report: missing id: %w", internalerr.ErrInvalidInput)
	}

	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	results := r.Results
	if results == nil {
		results = scan.Report{}
	}
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	const stmt = `
INSERT INTO reports (id, title, url, created_at, results)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	title=excluded.title,
	url=excluded.url,
	created_at=excluded.created_at,
	results=excluded.results`

	_, err = s.db.ExecContext(ctx, stmt, r.ID, r.Title, r.URL, r.CreatedAt.UTC().UnixNano(), string(data))
	return err
}

// LastReport returns the most recently created report.
func (s *sqliteStore) LastReport(ctx context.Context) (store.SavedReport, error) {
	list, err := s.ListReports(ctx, 1)
	if err != nil {
		return store.SavedReport{}, err
	}
	if len(list) == 0 {
		return store.SavedReport{}, fmt.Errorf("last report: %w", internalerr.ErrNotFound)
	}
	return list[0], nil
}

// GetReport returns a report by ID.
func (s *sqliteStore) GetReport(ctx context.Context, id string) (store.SavedReport, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, title, url, created_at, results FROM reports WHERE id = ?`, id)

	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.SavedReport{}, fmt.Errorf("report %s: %w", id, internalerr.ErrNotFound)
	}
	return r, err
}

// ListReports returns up to limit reports, newest first. A non-positive
// limit returns all of them.
func (s *sqliteStore) ListReports(ctx context.Context, limit int) ([]store.SavedReport, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, title, url, created_at, results FROM reports
ORDER BY created_at DESC, rowid DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.SavedReport
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReport(row rowScanner) (store.SavedReport, error) {
	var (
		r       store.SavedReport
		title   sql.NullString
		url     sql.NullString
		created int64
		results string
	)
	if err := row.Scan(&r.ID, &title, &url, &created, &results); err != nil {
		return store.SavedReport{}, err
	}
	r.Title = title.String
	r.URL = url.String
	r.CreatedAt = time.Unix(0, created).UTC()
	if err := json.Unmarshal([]byte(results), &r.Results); err != nil {
		return store.SavedReport{}, fmt.Errorf("decode report %s: %w", r.ID, err)
	}
	return r, nil
}

// Package manifest persists per-paper crawl outcomes to a SQLite
// database, so interrupted crawls can be audited and re-driven without
// re-reading the output tree.
package manifest

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hoangnd/texcrawl/internal/crawl"
)

// DB wraps the SQLite connection holding the crawl manifest.
type DB struct {
	db *sql.DB
}

// Entry is one recorded paper outcome.
type Entry struct {
	ArxivID    string
	Key        string
	Status     string
	Versions   int
	Fetched    int
	TexFiles   int
	BibFiles   int
	Refs       int
	DurationMS int64
	Error      string
	FinishedAt string
}

// Counts aggregates the manifest by status.
type Counts struct {
	Total     int
	Succeeded int
	NoSource  int
	Failed    int
}

// OpenDB opens or creates the manifest database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating manifest schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS papers (
			arxiv_id TEXT PRIMARY KEY,
			key TEXT NOT NULL,
			status TEXT NOT NULL,
			versions INTEGER NOT NULL,
			fetched INTEGER NOT NULL,
			tex_files INTEGER NOT NULL,
			bib_files INTEGER NOT NULL,
			refs INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			error TEXT,
			finished_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_papers_status ON papers(status);
	`
	_, err := db.Exec(schema)
	return err
}

// Record upserts one result. Re-crawling a paper replaces its previous
// row, so the manifest always reflects the latest attempt.
func (d *DB) Record(r crawl.Result) error {
	var errText sql.NullString
	if r.Err != nil {
		errText = sql.NullString{String: r.Err.Error(), Valid: true}
	}

	_, err := d.db.Exec(`
		INSERT OR REPLACE INTO papers (
			arxiv_id, key, status, versions, fetched,
			tex_files, bib_files, refs, duration_ms, error, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ArxivID, r.Key, r.Status(), len(r.Versions), r.Fetched,
		r.TexFiles, r.BibFiles, r.Refs, r.Duration.Milliseconds(),
		errText, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording %s: %w", r.ArxivID, err)
	}
	return nil
}

// Summary returns the manifest aggregated by status.
func (d *DB) Summary() (Counts, error) {
	rows, err := d.db.Query("SELECT status, COUNT(*) FROM papers GROUP BY status")
	if err != nil {
		return Counts{}, fmt.Errorf("summarizing manifest: %w", err)
	}
	defer rows.Close()

	var c Counts
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return Counts{}, err
		}
		c.Total += n
		switch status {
		case "ok":
			c.Succeeded += n
		case "no_source":
			c.NoSource += n
		default:
			c.Failed += n
		}
	}
	return c, rows.Err()
}

// MeanDuration averages the recorded per-paper durations. Zero when the
// manifest is empty.
func (d *DB) MeanDuration() (time.Duration, error) {
	var ms sql.NullFloat64
	err := d.db.QueryRow("SELECT AVG(duration_ms) FROM papers").Scan(&ms)
	if err != nil {
		return 0, fmt.Errorf("averaging durations: %w", err)
	}
	if !ms.Valid {
		return 0, nil
	}
	return time.Duration(ms.Float64 * float64(time.Millisecond)), nil
}

// Failures returns the entries that did not complete, ordered by id.
func (d *DB) Failures() ([]Entry, error) {
	rows, err := d.db.Query(`
		SELECT arxiv_id, key, status, versions, fetched,
			tex_files, bib_files, refs, duration_ms, error, finished_at
		FROM papers
		WHERE status != 'ok'
		ORDER BY arxiv_id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying failures: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Get retrieves one paper's entry, or nil when the paper was never
// recorded.
func (d *DB) Get(arxivID string) (*Entry, error) {
	row := d.db.QueryRow(`
		SELECT arxiv_id, key, status, versions, fetched,
			tex_files, bib_files, refs, duration_ms, error, finished_at
		FROM papers
		WHERE arxiv_id = ?
	`, arxivID)

	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Completed returns the identifiers already recorded as "ok", for
// skipping on a resumed crawl.
func (d *DB) Completed() ([]string, error) {
	rows, err := d.db.Query("SELECT arxiv_id FROM papers WHERE status = 'ok' ORDER BY arxiv_id")
	if err != nil {
		return nil, fmt.Errorf("querying completed papers: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*Entry, error) {
	var e Entry
	var errText sql.NullString
	err := s.Scan(
		&e.ArxivID, &e.Key, &e.Status, &e.Versions, &e.Fetched,
		&e.TexFiles, &e.BibFiles, &e.Refs, &e.DurationMS, &errText, &e.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Error = errText.String
	return &e, nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

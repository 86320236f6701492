// Package obslog persists a log of served position queries in SQLite, so
// operators can see what the server has been asked for and replay suspect
// queries against newer ephemerides.
package obslog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/parsyl/sqrl"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS queries (
	id          TEXT PRIMARY KEY,
	asked_at    TEXT NOT NULL,
	target      TEXT NOT NULL,
	epoch       TEXT NOT NULL,
	site        TEXT NOT NULL DEFAULT '',
	ephemeris   TEXT NOT NULL,
	ra_deg      REAL NOT NULL,
	dec_deg     REAL NOT NULL,
	distance_km REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS queries_asked_at ON queries(asked_at);
`

var columns = []string{
	"id",
	"asked_at",
	"target",
	"epoch",
	"site",
	"ephemeris",
	"ra_deg",
	"dec_deg",
	"distance_km",
}

// Entry is one served query and its answer.
type Entry struct {
	ID         string    `json:"id"`
	AskedAt    time.Time `json:"asked_at"`
	Target     string    `json:"target"`
	Epoch      string    `json:"epoch"`
	Site       string    `json:"site,omitempty"`
	Ephemeris  string    `json:"ephemeris"`
	RADeg      float64   `json:"ra_deg"`
	DecDeg     float64   `json:"dec_deg"`
	DistanceKm float64   `json:"distance_km"`
}

// Log is a SQLite-backed query log.
type Log struct {
	db *sql.DB
}

// Open opens (creating if needed) the query log at path. Use ":memory:" for
// an ephemeral log.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open query log %q: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create query log schema: %w", err)
	}
	return &Log{db: db}, nil
}

// Close releases the underlying database.
func (l *Log) Close() error { return l.db.Close() }

// Record inserts an entry, assigning it an ID and timestamp when absent,
// and returns the stored entry.
func (l *Log) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.AskedAt.IsZero() {
		e.AskedAt = time.Now().UTC()
	}

	q, args, err := sqrl.Insert("queries").
		Columns(columns...).
		Values(e.ID, e.AskedAt.UTC().Format(time.RFC3339Nano), e.Target, e.Epoch,
			e.Site, e.Ephemeris, e.RADeg, e.DecDeg, e.DistanceKm).
		ToSql()
	if err != nil {
		return Entry{}, err
	}
	if _, err := l.db.ExecContext(ctx, q, args...); err != nil {
		return Entry{}, fmt.Errorf("record query: %w", err)
	}
	return e, nil
}

// Recent returns up to limit entries, newest first.
func (l *Log) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	q, args, err := sqrl.Select(columns...).
		From("queries").
		OrderBy("asked_at DESC", "id").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list queries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var askedAt string
		if err := rows.Scan(&e.ID, &askedAt, &e.Target, &e.Epoch, &e.Site,
			&e.Ephemeris, &e.RADeg, &e.DecDeg, &e.DistanceKm); err != nil {
			return nil, err
		}
		if e.AskedAt, err = time.Parse(time.RFC3339Nano, askedAt); err != nil {
			return nil, fmt.Errorf("parse asked_at %q: %w", askedAt, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ByTarget returns up to limit entries for one body, newest first.
func (l *Log) ByTarget(ctx context.Context, target string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	q, args, err := sqrl.Select(columns...).
		From("queries").
		Where("target = ?", target).
		OrderBy("asked_at DESC", "id").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list queries for %q: %w", target, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var askedAt string
		if err := rows.Scan(&e.ID, &askedAt, &e.Target, &e.Epoch, &e.Site,
			&e.Ephemeris, &e.RADeg, &e.DecDeg, &e.DistanceKm); err != nil {
			return nil, err
		}
		if e.AskedAt, err = time.Parse(time.RFC3339Nano, askedAt); err != nil {
			return nil, fmt.Errorf("parse asked_at %q: %w", askedAt, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Count returns the number of stored entries.
func (l *Log) Count(ctx context.Context) (int, error) {
	var n int
	if err := l.db.QueryRowContext(ctx, "SELECT count(*) FROM queries").Scan(&n); err != nil {
		return 0, fmt.Errorf("count queries: %w", err)
	}
	return n, nil
}

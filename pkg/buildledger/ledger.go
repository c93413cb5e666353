// Package buildledger persists an audit trail of forward-index build
// attempts to PostgreSQL. It is purely operational bookkeeping for the
// build daemon and is skipped entirely when no Postgres DSN is configured.
package buildledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/orin-search/forward-index/pkg/postgres"
)

// Status values recorded for a build attempt.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Entry describes one build attempt.
//
// It requires a `build_ledger` table:
//
//	CREATE TABLE build_ledger (
//	    id                BIGSERIAL PRIMARY KEY,
//	    name              TEXT NOT NULL,
//	    path              TEXT NOT NULL,
//	    construction_path TEXT NOT NULL,
//	    status            TEXT NOT NULL,
//	    docs_indexed      BIGINT NOT NULL DEFAULT 0,
//	    unique_terms      BIGINT NOT NULL DEFAULT 0,
//	    started_at        TIMESTAMPTZ NOT NULL,
//	    finished_at       TIMESTAMPTZ,
//	    error             TEXT
//	);
type Entry struct {
	ID               int64
	Name             string
	Path             string
	ConstructionPath string
	Status           string
	DocsIndexed      int64
	UniqueTerms      int64
	StartedAt        time.Time
	FinishedAt       sql.NullTime
	Error            sql.NullString
}

// Ledger records build attempts in PostgreSQL.
type Ledger struct {
	db     *postgres.Client
	logger *slog.Logger
}

// New creates a Ledger backed by db.
func New(db *postgres.Client) *Ledger {
	return &Ledger{
		db:     db,
		logger: slog.Default().With("component", "build-ledger"),
	}
}

// Start records a new build attempt as running and returns its row id.
func (l *Ledger) Start(ctx context.Context, name, path, constructionPath string) (int64, error) {
	var id int64
	err := l.db.DB.QueryRowContext(ctx,
		`INSERT INTO build_ledger (name, path, construction_path, status, started_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		name, path, constructionPath, StatusRunning, time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("recording build start: %w", err)
	}
	l.logger.Info("build started", "id", id, "name", name, "path", path)
	return id, nil
}

// Finish records the terminal status of a build attempt.
func (l *Ledger) Finish(ctx context.Context, id int64, docsIndexed, uniqueTerms int64, buildErr error) error {
	status := StatusSucceeded
	var errText sql.NullString
	if buildErr != nil {
		status = StatusFailed
		errText = sql.NullString{String: buildErr.Error(), Valid: true}
	}

	_, err := l.db.DB.ExecContext(ctx,
		`UPDATE build_ledger SET status = $1, docs_indexed = $2, unique_terms = $3,
		 finished_at = $4, error = $5 WHERE id = $6`,
		status, docsIndexed, uniqueTerms, time.Now().UTC(), errText, id,
	)
	if err != nil {
		return fmt.Errorf("recording build finish: %w", err)
	}
	l.logger.Info("build finished", "id", id, "status", status, "docs_indexed", docsIndexed)
	return nil
}

// Latest returns the most recent ledger entry for name, or nil if none
// exists.
func (l *Ledger) Latest(ctx context.Context, name string) (*Entry, error) {
	var e Entry
	err := l.db.DB.QueryRowContext(ctx,
		`SELECT id, name, path, construction_path, status, docs_indexed, unique_terms,
		 started_at, finished_at, error FROM build_ledger
		 WHERE name = $1 ORDER BY started_at DESC LIMIT 1`,
		name,
	).Scan(&e.ID, &e.Name, &e.Path, &e.ConstructionPath, &e.Status, &e.DocsIndexed,
		&e.UniqueTerms, &e.StartedAt, &e.FinishedAt, &e.Error)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest build ledger entry: %w", err)
	}
	return &e, nil
}

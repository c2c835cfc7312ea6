package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/payasparab/addressmatcher/internal/model"
	"github.com/payasparab/addressmatcher/internal/resilience"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db    *sql.DB
	retry resilience.Policy
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, retry: resilience.DefaultPolicy()}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS match_runs (
	id         TEXT PRIMARY KEY,
	params     TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	summary    TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS match_candidates (
	run_id         TEXT NOT NULL REFERENCES match_runs(id),
	seq            INTEGER NOT NULL,
	id_a           TEXT NOT NULL,
	id_b           TEXT NOT NULL,
	score          REAL,
	tier           TEXT,
	block          TEXT NOT NULL,
	failure_reason TEXT,
	failure_detail TEXT,
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_match_runs_status ON match_runs(status);
CREATE INDEX IF NOT EXISTS idx_match_runs_created_at ON match_runs(created_at);
CREATE INDEX IF NOT EXISTS idx_match_candidates_tier ON match_candidates(run_id, tier);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, params model.RunParams) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal params")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO match_runs (id, params, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(paramsJSON), string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Params:    params,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, status model.RunStatus, summary *model.RunSummary) error {
	var summaryJSON sql.NullString
	if summary != nil {
		b, err := json.Marshal(summary)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal summary")
		}
		summaryJSON = sql.NullString{String: string(b), Valid: true}
	}

	res, err := resilience.DoVal(ctx, s.retry, "sqlite complete_run", func(ctx context.Context) (sql.Result, error) {
		return s.db.ExecContext(ctx,
			`UPDATE match_runs SET status = ?, summary = ?, updated_at = ? WHERE id = ?`,
			string(status), summaryJSON, time.Now().UTC(), runID,
		)
	})
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, params, status, summary, created_at, updated_at FROM match_runs WHERE id = ?`,
		runID,
	)
	r, err := scanRun(row)
	if errors.Is(err, ErrRunNotFound) {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}
	return r, err
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, params, status, summary, created_at, updated_at FROM match_runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

// SaveCandidates appends cands in one transaction. A transaction that hits a
// locked database is retried whole.
func (s *SQLiteStore) SaveCandidates(ctx context.Context, runID string, cands []model.Candidate) (int64, error) {
	if len(cands) == 0 {
		return 0, nil
	}
	return resilience.DoVal(ctx, s.retry, "sqlite save_candidates", func(ctx context.Context) (int64, error) {
		return s.insertCandidates(ctx, runID, cands)
	})
}

func (s *SQLiteStore) insertCandidates(ctx context.Context, runID string, cands []model.Candidate) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	var next int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), -1) + 1 FROM match_candidates WHERE run_id = ?`, runID,
	).Scan(&next); err != nil {
		return 0, eris.Wrapf(err, "sqlite: next seq for run %s", runID)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO match_candidates (run_id, seq, id_a, id_b, score, tier, block, failure_reason, failure_detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert candidate")
	}
	defer stmt.Close()

	for i, c := range cands {
		reason, detail := failureColumns(c)
		if _, err := stmt.ExecContext(ctx,
			runID, next+int64(i), c.IDA, c.IDB, scoreColumn(c), nullIfEmpty(c.Tier), c.Block, reason, detail,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert candidate %s/%s", c.IDA, c.IDB)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit candidates")
	}
	return int64(len(cands)), nil
}

func (s *SQLiteStore) ListCandidates(ctx context.Context, runID string, filter CandidateFilter) ([]model.Candidate, error) {
	query := `SELECT id_a, id_b, block, score, tier, failure_reason, failure_detail FROM match_candidates WHERE run_id = ?`
	args := []any{runID}

	if filter.Tier != "" {
		query += ` AND tier = ?`
		args = append(args, filter.Tier)
	}
	if filter.FailuresOnly {
		query += ` AND failure_reason IS NOT NULL`
	}
	query += ` ORDER BY seq`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list candidates for run %s", runID)
	}
	defer rows.Close()

	var out []model.Candidate
	for rows.Next() {
		var idA, idB, block string
		var score sql.NullFloat64
		var tier, reason, detail sql.NullString
		if err := rows.Scan(&idA, &idB, &block, &score, &tier, &reason, &detail); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan candidate")
		}
		out = append(out, buildCandidate(idA, idB, block,
			nullFloat(score), nullString(tier), nullString(reason), nullString(detail)))
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list candidates iterate")
}

// helpers

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrRunNotFound, "run %s", id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var paramsJSON string
	var summaryJSON sql.NullString

	err := row.Scan(&r.ID, &paramsJSON, &r.Status, &summaryJSON, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if err := json.Unmarshal([]byte(paramsJSON), &r.Params); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal params")
	}
	if summaryJSON.Valid {
		r.Summary = &model.RunSummary{}
		if err := json.Unmarshal([]byte(summaryJSON.String), r.Summary); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal summary")
		}
	}
	return &r, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func nullFloat(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	return &nf.Float64
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/payasparab/addressmatcher/internal/db"
	"github.com/payasparab/addressmatcher/internal/model"
	"github.com/payasparab/addressmatcher/internal/resilience"
)

const candidatesTable = "match_candidates"

var candidateColumns = []string{
	"run_id", "seq", "id_a", "id_b", "score", "tier", "block", "failure_reason", "failure_detail",
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool      db.Pool
	closeFn   func()
	retry     resilience.Policy
	copyBatch int
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection.
var preparedStatements = map[string]string{
	"insert_run":   `INSERT INTO match_runs (id, params, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
	"complete_run": `UPDATE match_runs SET status = $1, summary = $2, updated_at = $3 WHERE id = $4`,
	"get_run":      `SELECT id, params, status, summary, created_at, updated_at FROM match_runs WHERE id = $1`,
	"next_seq":     `SELECT COALESCE(MAX(seq), -1) + 1 FROM match_candidates WHERE run_id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return newPostgresStore(pool, pool.Close), nil
}

func newPostgresStore(pool db.Pool, closeFn func()) *PostgresStore {
	return &PostgresStore{
		pool:      pool,
		closeFn:   closeFn,
		retry:     resilience.DefaultPolicy(),
		copyBatch: db.DefaultCopyBatch,
	}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS match_runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	params     JSONB NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	summary    JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS match_candidates (
	run_id         TEXT NOT NULL REFERENCES match_runs(id),
	seq            BIGINT NOT NULL,
	id_a           TEXT NOT NULL,
	id_b           TEXT NOT NULL,
	score          DOUBLE PRECISION,
	tier           TEXT,
	block          TEXT NOT NULL,
	failure_reason TEXT,
	failure_detail TEXT,
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_match_runs_status ON match_runs(status);
CREATE INDEX IF NOT EXISTS idx_match_runs_created_at ON match_runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_match_candidates_tier ON match_candidates(run_id, tier);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, params model.RunParams) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal params")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO match_runs (id, params, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, paramsJSON, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Params:    params,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, status model.RunStatus, summary *model.RunSummary) error {
	var summaryJSON []byte
	if summary != nil {
		b, err := json.Marshal(summary)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal summary")
		}
		summaryJSON = b
	}

	var tag pgconn.CommandTag
	err := resilience.Do(ctx, s.retry, "postgres complete_run", func(ctx context.Context) error {
		var err error
		tag, err = s.pool.Exec(ctx,
			`UPDATE match_runs SET status = $1, summary = $2, updated_at = $3 WHERE id = $4`,
			string(status), summaryJSON, time.Now().UTC(), runID,
		)
		return err
	})
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrRunNotFound, "run %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, params, status, summary, created_at, updated_at FROM match_runs WHERE id = $1`,
		runID,
	)
	r, err := scanPgRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrRunNotFound, "postgres: get run %s", runID)
		}
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, params, status, summary, created_at, updated_at FROM match_runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanPgRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

// SaveCandidates appends candidates with COPY. Transient failures are
// retried from the first batch that did not land.
func (s *PostgresStore) SaveCandidates(ctx context.Context, runID string, cands []model.Candidate) (int64, error) {
	if len(cands) == 0 {
		return 0, nil
	}

	next, err := resilience.DoVal(ctx, s.retry, "postgres next_seq", func(ctx context.Context) (int64, error) {
		var n int64
		err := s.pool.QueryRow(ctx,
			`SELECT COALESCE(MAX(seq), -1) + 1 FROM match_candidates WHERE run_id = $1`, runID,
		).Scan(&n)
		return n, err
	})
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: next seq for run %s", runID)
	}

	rows := make([][]any, len(cands))
	for i, c := range cands {
		reason, detail := failureColumns(c)
		rows[i] = []any{runID, next + int64(i), c.IDA, c.IDB, scoreColumn(c), nullIfEmpty(c.Tier), c.Block, reason, detail}
	}

	stored, err := resilience.Resume(ctx, s.retry, "postgres save_candidates", func(ctx context.Context, offset int) (int, error) {
		n, err := db.CopyInBatches(ctx, s.pool, candidatesTable, candidateColumns, rows[offset:], s.copyBatch)
		return int(n), err
	})
	saved := int64(stored)
	if err != nil {
		return saved, eris.Wrapf(err, "postgres: save candidates for run %s", runID)
	}

	zap.L().Debug("saved candidates",
		zap.String("component", "store"),
		zap.String("run_id", runID),
		zap.Int64("rows", saved),
	)
	return saved, nil
}

func (s *PostgresStore) ListCandidates(ctx context.Context, runID string, filter CandidateFilter) ([]model.Candidate, error) {
	query := `SELECT id_a, id_b, block, score, tier, failure_reason, failure_detail FROM match_candidates WHERE run_id = $1`
	args := []any{runID}
	argIdx := 2

	if filter.Tier != "" {
		query += fmt.Sprintf(` AND tier = $%d`, argIdx)
		args = append(args, filter.Tier)
		argIdx++
	}
	if filter.FailuresOnly {
		query += ` AND failure_reason IS NOT NULL`
	}
	query += ` ORDER BY seq`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argIdx)
		args = append(args, filter.Limit)
		argIdx++
		if filter.Offset > 0 {
			query += fmt.Sprintf(` OFFSET $%d`, argIdx)
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list candidates for run %s", runID)
	}
	defer rows.Close()

	var out []model.Candidate
	for rows.Next() {
		var idA, idB, block string
		var score *float64
		var tier, reason, detail *string
		if err := rows.Scan(&idA, &idB, &block, &score, &tier, &reason, &detail); err != nil {
			return nil, eris.Wrap(err, "postgres: scan candidate")
		}
		out = append(out, buildCandidate(idA, idB, block, score, tier, reason, detail))
	}
	return out, eris.Wrap(rows.Err(), "postgres: list candidates iterate")
}

func scanPgRun(row pgx.Row) (*model.Run, error) {
	var r model.Run
	var paramsJSON []byte
	var summaryJSON *[]byte

	if err := row.Scan(&r.ID, &paramsJSON, &r.Status, &summaryJSON, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(paramsJSON, &r.Params); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal params")
	}
	if summaryJSON != nil {
		r.Summary = &model.RunSummary{}
		if err := json.Unmarshal(*summaryJSON, r.Summary); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal summary")
		}
	}
	return &r, nil
}

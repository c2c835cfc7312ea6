package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payasparab/addressmatcher/internal/model"
)

func newTestSQLiteRaw(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestNewSQLite_InvalidDSN(t *testing.T) {
	// Use a path that cannot be created (nested under a nonexistent parent).
	_, err := NewSQLite("/nonexistent/dir/subdir/test.db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite")
}

func TestNewSQLite_WALMode(t *testing.T) {
	s := newTestSQLiteRaw(t)

	var mode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestNewSQLite_CloseAndReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reopen.db")

	s1, err := NewSQLite(dbPath)
	require.NoError(t, err)
	require.NoError(t, s1.Migrate(context.Background()))
	run, err := s1.CreateRun(context.Background(), testParams())
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s2.Close() }) //nolint:errcheck

	got, err := s2.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
}

func TestSQLite_SaveCandidates_UnknownRun(t *testing.T) {
	s := newTestSQLiteRaw(t)

	_, err := s.SaveCandidates(context.Background(), "no-such-run", testCandidates()[:1])
	require.Error(t, err, "foreign key enforced")
	assert.Contains(t, err.Error(), "sqlite: insert candidate")

	got, err := s.ListCandidates(context.Background(), "no-such-run", CandidateFilter{})
	require.NoError(t, err)
	assert.Empty(t, got, "failed batch rolled back")
}

func TestScanRun_CorruptParamsJSON(t *testing.T) {
	s := newTestSQLiteRaw(t)
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO match_runs (id, params, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		"corrupt", "{not json", string(model.RunStatusRunning), time.Now().UTC(), time.Now().UTC(),
	)
	require.NoError(t, err)

	_, err = s.GetRun(ctx, "corrupt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal params")
}

func TestClose_OperationsAfterClose(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "closed.db")
	s, err := NewSQLite(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, s.Close())

	_, err = s.CreateRun(context.Background(), testParams())
	assert.Error(t, err)
}

package monitoring

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payasparab/addressmatcher/internal/model"
	"github.com/payasparab/addressmatcher/internal/resolve"
	"github.com/payasparab/addressmatcher/internal/store"
)

func newTestMetrics(t *testing.T) *MatchMetrics {
	t.Helper()
	m, err := NewMatchMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	return m
}

func TestNewMatchMetrics_DoubleRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMatchMetrics(reg)
	require.NoError(t, err)

	_, err = NewMatchMetrics(reg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "monitoring: register collector")
}

func TestObserveBlock(t *testing.T) {
	m := newTestMetrics(t)

	m.ObserveBlock(resolve.BlockResult{
		Key:   "78701",
		Pairs: 12,
		Candidates: []model.Candidate{
			{IDA: "a", IDB: "b", Score: 95, Tier: model.TierNearExact},
			{IDA: "c", IDB: "d", Score: 91, Tier: model.TierNearExact},
			{IDA: "e", IDB: "f", Score: 62},
			{IDB: "g", Failure: &model.Failure{Reason: model.FailureMissingRecordID}},
		},
		Duration: 3 * time.Millisecond,
	})
	m.ObserveBlock(resolve.BlockResult{Key: "02134", Pairs: 8, TimedOut: true})

	assert.InDelta(t, 20, testutil.ToFloat64(m.PairsCompared), 1e-9)
	assert.InDelta(t, 2, testutil.ToFloat64(m.BlocksTotal), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.BlocksTimedOut), 1e-9)
	assert.InDelta(t, 2, testutil.ToFloat64(m.Candidates.WithLabelValues(model.TierNearExact)), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Candidates.WithLabelValues("unclassified")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Failures.WithLabelValues(string(model.FailureMissingRecordID))), 1e-9)
	assert.Equal(t, 1, testutil.CollectAndCount(m.BlockDuration))
}

func TestObserveRun(t *testing.T) {
	m := newTestMetrics(t)
	m.ObserveRun(model.RunSummary{DurationMs: 2500})
	assert.InDelta(t, 2.5, testutil.ToFloat64(m.LastRunDuration), 1e-9)
}

func TestWriteTextfile(t *testing.T) {
	m := newTestMetrics(t)
	m.ObserveBlock(resolve.BlockResult{Key: "78701", Pairs: 3})

	path := filepath.Join(t.TempDir(), "addressmatcher.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "addressmatcher_resolve_pairs_compared_total 3")
	assert.Contains(t, string(data), "# TYPE addressmatcher_resolve_block_duration_seconds histogram")
}

func TestWriteTextfile_BadPath(t *testing.T) {
	m := newTestMetrics(t)
	err := m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "out.prom"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "monitoring: write textfile")
}

type fakeLister struct {
	runs []model.Run
	err  error
}

func (f fakeLister) ListRuns(_ context.Context, _ store.RunFilter) ([]model.Run, error) {
	return f.runs, f.err
}

func TestCollectRuns(t *testing.T) {
	m := newTestMetrics(t)

	err := m.CollectRuns(context.Background(), fakeLister{runs: []model.Run{
		{ID: "1", Status: model.RunStatusComplete},
		{ID: "2", Status: model.RunStatusComplete},
		{ID: "3", Status: model.RunStatusPartial},
	}}, 50)
	require.NoError(t, err)

	assert.InDelta(t, 2, testutil.ToFloat64(m.RunsByStatus.WithLabelValues("complete")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RunsByStatus.WithLabelValues("partial")), 1e-9)
	assert.InDelta(t, 0, testutil.ToFloat64(m.RunsByStatus.WithLabelValues("failed")), 1e-9)
}

func TestCollectRuns_Error(t *testing.T) {
	m := newTestMetrics(t)
	err := m.CollectRuns(context.Background(), fakeLister{err: errors.New("db down")}, 50)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "monitoring: list runs")
}

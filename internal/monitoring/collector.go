package monitoring

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/payasparab/addressmatcher/internal/model"
	"github.com/payasparab/addressmatcher/internal/store"
)

// RunLister is the store subset needed to snapshot run counts.
type RunLister interface {
	ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error)
}

// runStatuses are always exported, so an absent status reads as 0.
var runStatuses = []model.RunStatus{
	model.RunStatusRunning,
	model.RunStatusComplete,
	model.RunStatusPartial,
	model.RunStatusFailed,
}

// CollectRuns sets the runs-by-status gauge from the most recent limit runs.
func (m *MatchMetrics) CollectRuns(ctx context.Context, st RunLister, limit int) error {
	runs, err := st.ListRuns(ctx, store.RunFilter{Limit: limit})
	if err != nil {
		return eris.Wrap(err, "monitoring: list runs")
	}

	counts := make(map[model.RunStatus]int, len(runStatuses))
	for _, r := range runs {
		counts[r.Status]++
	}
	for _, s := range runStatuses {
		m.RunsByStatus.WithLabelValues(string(s)).Set(float64(counts[s]))
	}
	return nil
}

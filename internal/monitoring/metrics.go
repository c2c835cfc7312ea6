// Package monitoring exports match-run metrics in Prometheus format.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"

	"github.com/payasparab/addressmatcher/internal/model"
	"github.com/payasparab/addressmatcher/internal/resolve"
)

const namespace = "addressmatcher"

// MatchMetrics records per-block resolution metrics. It implements
// resolve.Observer.
type MatchMetrics struct {
	reg prometheus.Gatherer

	PairsCompared   prometheus.Counter
	Candidates      *prometheus.CounterVec
	Failures        *prometheus.CounterVec
	BlocksTotal     prometheus.Counter
	BlocksTimedOut  prometheus.Counter
	BlockDuration   prometheus.Histogram
	RunsByStatus    *prometheus.GaugeVec
	LastRunDuration prometheus.Gauge
}

// NewMatchMetrics creates the match collectors and registers them on reg.
func NewMatchMetrics(reg *prometheus.Registry) (*MatchMetrics, error) {
	m := &MatchMetrics{
		reg: reg,
		PairsCompared: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolve",
			Name:      "pairs_compared_total",
			Help:      "Total number of record pairs scored",
		}),
		Candidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolve",
			Name:      "candidates_total",
			Help:      "Total number of candidates above threshold by confidence tier",
		}, []string{"tier"}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolve",
			Name:      "pair_failures_total",
			Help:      "Total number of pairs that could not be scored by reason",
		}, []string{"reason"}),
		BlocksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolve",
			Name:      "blocks_total",
			Help:      "Total number of postal-code blocks processed",
		}),
		BlocksTimedOut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolve",
			Name:      "blocks_timed_out_total",
			Help:      "Total number of blocks stopped early by the block timeout",
		}),
		BlockDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "resolve",
			Name:      "block_duration_seconds",
			Help:      "Duration of block scoring in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}),
		RunsByStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "runs",
			Help:      "Number of persisted runs by status",
		}, []string{"status"}),
		LastRunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "resolve",
			Name:      "last_run_duration_seconds",
			Help:      "Wall-clock duration of the most recent run",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.PairsCompared, m.Candidates, m.Failures, m.BlocksTotal,
		m.BlocksTimedOut, m.BlockDuration, m.RunsByStatus, m.LastRunDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, eris.Wrap(err, "monitoring: register collector")
		}
	}
	return m, nil
}

// ObserveBlock records one finished block.
func (m *MatchMetrics) ObserveBlock(b resolve.BlockResult) {
	m.BlocksTotal.Inc()
	m.PairsCompared.Add(float64(b.Pairs))
	m.BlockDuration.Observe(b.Duration.Seconds())
	if b.TimedOut {
		m.BlocksTimedOut.Inc()
	}
	for _, c := range b.Candidates {
		if c.Failed() {
			m.Failures.WithLabelValues(string(c.Failure.Reason)).Inc()
			continue
		}
		m.Candidates.WithLabelValues(tierLabel(c.Tier)).Inc()
	}
}

// ObserveRun records a finished run's summary.
func (m *MatchMetrics) ObserveRun(summary model.RunSummary) {
	m.LastRunDuration.Set(float64(summary.DurationMs) / 1000)
}

func tierLabel(tier string) string {
	if tier == "" {
		return "unclassified"
	}
	return tier
}

// WriteTextfile writes every metric gathered from the registry to path in
// the Prometheus text format, for node_exporter's textfile collector.
func (m *MatchMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return eris.Wrapf(err, "monitoring: write textfile %s", path)
	}
	return nil
}

var _ resolve.Observer = (*MatchMetrics)(nil)

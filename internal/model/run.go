package model

import "time"

// RunStatus represents the current state of a match run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusPartial  RunStatus = "partial"
	RunStatusFailed   RunStatus = "failed"
)

// RunParams records how a match run was configured.
type RunParams struct {
	SourceA   string      `json:"source_a"`
	SourceB   string      `json:"source_b"`
	PathA     string      `json:"path_a,omitempty"`
	PathB     string      `json:"path_b,omitempty"`
	NoName    bool        `json:"no_name"`
	Threshold float64     `json:"threshold"`
	Method    string      `json:"method"`
	Weights   WeightTable `json:"weights"`
	Tiers     TierTable   `json:"tiers"`
}

// RunSummary holds the counts reported when a run finishes.
type RunSummary struct {
	RecordsA      int            `json:"records_a"`
	RecordsB      int            `json:"records_b"`
	SharedBlocks  int            `json:"shared_blocks"`
	PairsCompared int64          `json:"pairs_compared"`
	Candidates    int            `json:"candidates"`
	Failures      int            `json:"failures"`
	TimedOut      int            `json:"timed_out_blocks"`
	TierCounts    map[string]int `json:"tier_counts"`
	DurationMs    int64          `json:"duration_ms"`
}

// Run is one persisted invocation of the match engine.
type Run struct {
	ID        string      `json:"id"`
	Params    RunParams   `json:"params"`
	Status    RunStatus   `json:"status"`
	Summary   *RunSummary `json:"summary,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Package store persists match runs and their candidate pairs.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/payasparab/addressmatcher/internal/model"
	"github.com/payasparab/addressmatcher/internal/resilience"
)

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = eris.New("store: run not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// CandidateFilter specifies criteria for listing a run's candidates.
// A zero Limit returns every match.
type CandidateFilter struct {
	Tier         string `json:"tier,omitempty"`
	FailuresOnly bool   `json:"failures_only,omitempty"`
	Limit        int    `json:"limit,omitempty"`
	Offset       int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for match runs.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, params model.RunParams) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, status model.RunStatus, summary *model.RunSummary) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Candidates are appended in call order and listed in that order.
	SaveCandidates(ctx context.Context, runID string, cands []model.Candidate) (int64, error)
	ListCandidates(ctx context.Context, runID string, filter CandidateFilter) ([]model.Candidate, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open returns the Store for driver ("sqlite" or "postgres"). Candidate
// writes are retried under retry.
func Open(ctx context.Context, driver, dsn string, retry resilience.Policy) (Store, error) {
	switch driver {
	case "", "sqlite":
		s, err := NewSQLite(dsn)
		if err != nil {
			return nil, err
		}
		s.retry = retry
		return s, nil
	case "postgres":
		s, err := NewPostgres(ctx, dsn, nil)
		if err != nil {
			return nil, err
		}
		s.retry = retry
		return s, nil
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}

func failureColumns(c model.Candidate) (reason, detail *string) {
	if c.Failure == nil {
		return nil, nil
	}
	r := string(c.Failure.Reason)
	d := c.Failure.Detail
	return &r, &d
}

func scoreColumn(c model.Candidate) *float64 {
	if c.Failure != nil {
		return nil
	}
	s := c.Score
	return &s
}

func buildCandidate(idA, idB, block string, score *float64, tier, reason, detail *string) model.Candidate {
	c := model.Candidate{IDA: idA, IDB: idB, Block: block}
	if score != nil {
		c.Score = *score
	}
	if tier != nil {
		c.Tier = *tier
	}
	if reason != nil {
		c.Failure = &model.Failure{Reason: model.FailureReason(*reason)}
		if detail != nil {
			c.Failure.Detail = *detail
		}
	}
	return c
}

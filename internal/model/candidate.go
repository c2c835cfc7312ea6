package model

import "fmt"

// FailureReason classifies why a pair could not be scored.
type FailureReason string

const (
	FailureMissingRecordID FailureReason = "missing_record_id"
	FailureInvalidWeights  FailureReason = "invalid_weights"
	FailureScorerPanic     FailureReason = "scorer_panic"
)

// Failure records a pair that was compared but could not be scored.
type Failure struct {
	Reason FailureReason `json:"reason"`
	Detail string        `json:"detail,omitempty"`
}

func (f *Failure) Error() string {
	if f.Detail == "" {
		return string(f.Reason)
	}
	return fmt.Sprintf("%s: %s", f.Reason, f.Detail)
}

// Candidate is one scored pair that cleared the acceptance threshold, or a
// pair whose scoring failed. A failed candidate has a non-nil Failure and no
// meaningful Score or Tier.
type Candidate struct {
	IDA     string   `json:"id_a"`
	IDB     string   `json:"id_b"`
	Score   float64  `json:"score"`
	Tier    string   `json:"confidence_level"`
	Block   string   `json:"block"`
	Failure *Failure `json:"failure,omitempty"`
}

// Failed reports whether the pair could not be scored.
func (c Candidate) Failed() bool {
	return c.Failure != nil
}

// Scored returns the candidates that carry a score, dropping failures.
func Scored(cands []Candidate) []Candidate {
	out := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if !c.Failed() {
			out = append(out, c)
		}
	}
	return out
}

// Failures returns only the candidates whose scoring failed.
func Failures(cands []Candidate) []Candidate {
	var out []Candidate
	for _, c := range cands {
		if c.Failed() {
			out = append(out, c)
		}
	}
	return out
}

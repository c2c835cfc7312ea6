package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/payasparab/addressmatcher/internal/model"
	"github.com/payasparab/addressmatcher/internal/resolve"
)

// topCandidates returns up to n scored candidates by descending score.
// Equal scores keep output order.
func topCandidates(cands []model.Candidate, n int) []model.Candidate {
	scored := model.Scored(cands)
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > n {
		scored = scored[:n]
	}
	return scored
}

// writeExplanations prints the field breakdown behind the n best candidates.
func writeExplanations(out io.Writer, s *resolve.Scorer, a, b []model.Record, cands []model.Candidate, n int) {
	byA := make(map[string]model.Record, len(a))
	for _, r := range a {
		byA[r.ID] = r
	}
	byB := make(map[string]model.Record, len(b))
	for _, r := range b {
		byB[r.ID] = r
	}

	for _, c := range topCandidates(cands, n) {
		e := s.Explain(byA[c.IDA], byB[c.IDB])

		_, _ = fmt.Fprintf(out, "\nPair %s x %s (block %s): score %.2f\n", c.IDA, c.IDB, c.Block, e.Score)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "  FIELD\tA\tB\tSIM\tWEIGHT\tPOINTS")
		for _, fs := range e.Fields {
			_, _ = fmt.Fprintf(w, "  %s\t%s\t%s\t%.3f\t%.2f\t%.2f\n",
				fs.Field, fs.A, fs.B, fs.Similarity, fs.Weight, fs.Contribution)
		}
		_ = w.Flush()
		if e.Vetoed {
			_, _ = fmt.Fprintf(out, "  vetoed: house number ratio %.2f\n", e.House)
		}
	}
}

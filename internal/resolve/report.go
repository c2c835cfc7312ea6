package resolve

import (
	"fmt"
	"strings"

	"github.com/payasparab/addressmatcher/internal/model"
)

// Report summarizes how much of each source was matched.
type Report struct {
	LabelA    string
	LabelB    string
	UniqueA   int
	UniqueB   int
	MatchedA  int
	MatchedB  int
	PercentA  float64
	PercentB  float64
	Failures  int
	TierNames []string
	TierCount map[string]int
}

// BuildReport counts unique and matched IDs per source and candidates per
// tier. Failed candidates are counted separately and never as matches.
func BuildReport(a, b []model.Record, cands []model.Candidate, tiers model.TierTable, labelA, labelB string) Report {
	r := Report{
		LabelA:    labelA,
		LabelB:    labelB,
		UniqueA:   uniqueIDs(a),
		UniqueB:   uniqueIDs(b),
		TierNames: tiers.Names(),
		TierCount: make(map[string]int),
	}

	matchedA := make(map[string]bool)
	matchedB := make(map[string]bool)
	for _, c := range cands {
		if c.Failed() {
			r.Failures++
			continue
		}
		matchedA[c.IDA] = true
		matchedB[c.IDB] = true
		r.TierCount[c.Tier]++
	}
	r.MatchedA, r.MatchedB = len(matchedA), len(matchedB)
	r.PercentA = percent(r.MatchedA, r.UniqueA)
	r.PercentB = percent(r.MatchedB, r.UniqueB)
	return r
}

// FormatReport renders r as plain text.
func FormatReport(r Report) string {
	title := func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	}
	a, b := title(r.LabelA), title(r.LabelB)

	var sb strings.Builder
	sb.WriteString("Match Report:\n")
	fmt.Fprintf(&sb, "Total unique %s IDs: %d\n", a, r.UniqueA)
	fmt.Fprintf(&sb, "Total unique %s IDs: %d\n", b, r.UniqueB)
	fmt.Fprintf(&sb, "Unique matched %s IDs: %d\n", a, r.MatchedA)
	fmt.Fprintf(&sb, "Unique matched %s IDs: %d\n", b, r.MatchedB)
	fmt.Fprintf(&sb, "%s match percentage: %.2f%%\n", a, r.PercentA)
	fmt.Fprintf(&sb, "%s match percentage: %.2f%%\n", b, r.PercentB)
	if r.Failures > 0 {
		fmt.Fprintf(&sb, "Failed pairs: %d\n", r.Failures)
	}
	sb.WriteString("\nConfidence Level Counts:\n")
	names := r.TierNames
	if _, ok := r.TierCount[""]; ok {
		names = append(append([]string(nil), names...), "")
	}
	for _, name := range names {
		label := name
		if label == "" {
			label = "unclassified"
		}
		fmt.Fprintf(&sb, "  %-12s %d\n", label, r.TierCount[name])
	}
	return sb.String()
}

func uniqueIDs(recs []model.Record) int {
	seen := make(map[string]bool, len(recs))
	for _, r := range recs {
		if r.ID != "" {
			seen[r.ID] = true
		}
	}
	return len(seen)
}

func percent(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d) * 100
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/payasparab/addressmatcher/internal/model"
	"github.com/payasparab/addressmatcher/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect match run history",
	Long:  "Commands for listing, viewing, and summarizing persisted match runs.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List match runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Status: model.RunStatus(status),
			Limit:  limit,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show full details of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(run); err != nil {
			return err
		}

		limit, _ := cmd.Flags().GetInt("candidates")
		if limit == 0 {
			return nil
		}
		tier, _ := cmd.Flags().GetString("tier")
		failures, _ := cmd.Flags().GetBool("failures")
		cands, err := st.ListCandidates(ctx, run.ID, store.CandidateFilter{
			Tier:         tier,
			FailuresOnly: failures,
			Limit:        max(limit, 0),
		})
		if err != nil {
			return eris.Wrap(err, "runs show candidates")
		}
		formatCandidates(os.Stdout, cands)
		return nil
	},
}

// -- runs stats --

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate run statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		since, _ := cmd.Flags().GetDuration("since")
		runs, err := st.ListRuns(ctx, store.RunFilter{Limit: 10000})
		if err != nil {
			return eris.Wrap(err, "runs stats")
		}

		if since > 0 {
			runs = runsSince(runs, time.Now().Add(-since))
		}
		formatRunStats(os.Stdout, computeRunStats(runs))
		return nil
	},
}

func init() {
	runsListCmd.Flags().String("status", "", "filter by run status (running, complete, partial, failed)")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsShowCmd.Flags().Int("candidates", 0, "also list up to N candidates (-1 for all)")
	runsShowCmd.Flags().String("tier", "", "only list candidates in this confidence tier")
	runsShowCmd.Flags().Bool("failures", false, "only list pairs that failed to score")

	runsStatsCmd.Flags().Duration("since", 7*24*time.Hour, "time window for stats (e.g. 24h, 168h); 0 for all")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsStatsCmd)
	rootCmd.AddCommand(runsCmd)
}

// runStats holds aggregate statistics computed from a set of runs.
type runStats struct {
	Total         int
	Complete      int
	Partial       int
	Failed        int
	Other         int
	Candidates    int
	PairsCompared int64
	AvgDurSecs    float64
}

// computeRunStats computes aggregate statistics from a list of runs.
func computeRunStats(runs []model.Run) runStats {
	var s runStats
	s.Total = len(runs)

	var totalMs int64
	var durCount int

	for _, r := range runs {
		switch r.Status {
		case model.RunStatusComplete:
			s.Complete++
		case model.RunStatusPartial:
			s.Partial++
		case model.RunStatusFailed:
			s.Failed++
		default:
			s.Other++
		}
		if r.Summary != nil {
			s.Candidates += r.Summary.Candidates
			s.PairsCompared += r.Summary.PairsCompared
			totalMs += r.Summary.DurationMs
			durCount++
		}
	}

	if durCount > 0 {
		s.AvgDurSecs = float64(totalMs) / 1000 / float64(durCount)
	}
	return s
}

func runsSince(runs []model.Run, cutoff time.Time) []model.Run {
	var out []model.Run
	for _, r := range runs {
		if !r.CreatedAt.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSOURCES\tSTATUS\tCANDIDATES\tCREATED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t-------\t------\t----------\t-------\t--------")

	for _, r := range runs {
		dur := r.UpdatedAt.Sub(r.CreatedAt).Round(time.Second).String()
		cands := "-"
		if r.Summary != nil {
			cands = fmt.Sprintf("%d", r.Summary.Candidates)
		}

		sources := r.Params.SourceA + " x " + r.Params.SourceB
		if r.Params.NoName {
			sources += " (no-name)"
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			truncateID(r.ID),
			sources,
			r.Status,
			cands,
			r.CreatedAt.Format("2006-01-02 15:04"),
			dur,
		)
	}
	_ = w.Flush()
}

// formatCandidates writes candidate pairs to w.
func formatCandidates(out io.Writer, cands []model.Candidate) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID_A\tID_B\tBLOCK\tSCORE\tTIER")
	for _, c := range cands {
		if c.Failed() {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t-\t%s\n", c.IDA, c.IDB, c.Block, c.Failure.Error())
			continue
		}
		tier := c.Tier
		if tier == "" {
			tier = "unclassified"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\n", c.IDA, c.IDB, c.Block, c.Score, tier)
	}
	_ = w.Flush()
}

// formatRunStats writes aggregate stats to w.
func formatRunStats(out io.Writer, s runStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total runs:\t%d\n", s.Total)
	_, _ = fmt.Fprintf(w, "Complete:\t%d\n", s.Complete)
	_, _ = fmt.Fprintf(w, "Partial:\t%d\n", s.Partial)
	_, _ = fmt.Fprintf(w, "Failed:\t%d\n", s.Failed)
	_, _ = fmt.Fprintf(w, "Other:\t%d\n", s.Other)
	_, _ = fmt.Fprintf(w, "Candidates:\t%d\n", s.Candidates)
	_, _ = fmt.Fprintf(w, "Pairs compared:\t%d\n", s.PairsCompared)
	if s.AvgDurSecs > 0 {
		_, _ = fmt.Fprintf(w, "Avg duration:\t%.1fs\n", s.AvgDurSecs)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

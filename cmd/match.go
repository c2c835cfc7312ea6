package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/payasparab/addressmatcher/internal/config"
	"github.com/payasparab/addressmatcher/internal/model"
	"github.com/payasparab/addressmatcher/internal/monitoring"
	"github.com/payasparab/addressmatcher/internal/resolve"
	"github.com/payasparab/addressmatcher/internal/similarity"
	"github.com/payasparab/addressmatcher/internal/source"
	"github.com/payasparab/addressmatcher/internal/store"
)

// sourceSpec identifies one side of a match.
type sourceSpec struct {
	Path     string
	Kind     string
	Label    string
	IDColumn string
}

// matchOptions holds the resolved inputs of one match invocation.
type matchOptions struct {
	A, B       sourceSpec
	Output     string
	BestOnly   bool
	NoStore    bool
	ExplainTop int
}

// matchOutcome is what runMatch produced, for printing and tests.
type matchOutcome struct {
	RunID  string
	Report resolve.Report
	Stats  resolve.Stats
	Status model.RunStatus
	Rows   int
}

var (
	matchA        sourceSpec
	matchB        sourceSpec
	matchOutput   string
	matchBestOnly bool
	matchNoStore  bool
	matchExplain  int
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match customer records between two exports",
	Long: `Loads two customer exports, blocks them on cleaned postal code, scores
every in-block pair, and writes the stitched candidate table as CSV.

Examples:
  addressmatcher match --a shopify.csv --a-kind storefront --b amazon.tsv --b-kind marketplace
  addressmatcher match --a shopify.csv --a-kind storefront --b netsuite.xlsx --b-kind erp --best-only`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		opts := matchOptions{
			A:          matchA,
			B:          matchB,
			Output:     matchOutput,
			BestOnly:   matchBestOnly,
			NoStore:    matchNoStore,
			ExplainTop: matchExplain,
		}

		var st store.Store
		if !opts.NoStore {
			s, err := initStore(ctx)
			if err != nil {
				return eris.Wrap(err, "match: init store")
			}
			defer s.Close() //nolint:errcheck
			st = s
		}

		outcome, err := runMatch(ctx, cfg, opts, st, os.Stdout)
		if err != nil {
			return err
		}
		if outcome.RunID != "" {
			fmt.Fprintf(os.Stderr, "Run %s (%s)\n", outcome.RunID, outcome.Status)
		}
		return nil
	},
}

func init() {
	matchCmd.Flags().StringVar(&matchA.Path, "a", "", "path to source A export (csv, tsv, xlsx)")
	matchCmd.Flags().StringVar(&matchA.Kind, "a-kind", "storefront", "source A kind (storefront, marketplace, erp)")
	matchCmd.Flags().StringVar(&matchA.Label, "a-label", "", "source A label used in output columns (default: platform name)")
	matchCmd.Flags().StringVar(&matchA.IDColumn, "a-id-column", "", "source A ID column in output (default: <label>_id)")
	matchCmd.Flags().StringVar(&matchB.Path, "b", "", "path to source B export (csv, tsv, xlsx)")
	matchCmd.Flags().StringVar(&matchB.Kind, "b-kind", "marketplace", "source B kind (storefront, marketplace, erp)")
	matchCmd.Flags().StringVar(&matchB.Label, "b-label", "", "source B label used in output columns (default: platform name)")
	matchCmd.Flags().StringVar(&matchB.IDColumn, "b-id-column", "", "source B ID column in output (default: <label>_id)")
	matchCmd.Flags().StringVarP(&matchOutput, "output", "o", "matches.csv", "stitched CSV output path")
	matchCmd.Flags().BoolVar(&matchBestOnly, "best-only", false, "keep only the highest-scoring candidate per A record")
	matchCmd.Flags().BoolVar(&matchNoStore, "no-store", false, "do not persist the run")
	matchCmd.Flags().IntVar(&matchExplain, "explain-top", 0, "print the per-field score breakdown of the N highest-scoring candidates")
	_ = matchCmd.MarkFlagRequired("a")
	_ = matchCmd.MarkFlagRequired("b")

	rootCmd.AddCommand(matchCmd)
}

// runMatch loads both sources, builds candidates, writes the stitched CSV and
// report, and persists the run when st is non-nil.
func runMatch(ctx context.Context, c *config.Config, opts matchOptions, st store.Store, out io.Writer) (*matchOutcome, error) {
	log := zap.L().With(zap.String("component", "match"))

	a, err := loadSource(ctx, c, opts.A)
	if err != nil {
		return nil, err
	}
	b, err := loadSource(ctx, c, opts.B)
	if err != nil {
		return nil, err
	}

	tables, err := config.LoadTables(c.Match.WeightsFile)
	if err != nil {
		return nil, eris.Wrap(err, "match: load tables")
	}
	noName := a.NoName || b.NoName
	weights := tables.SelectWeights(noName)

	metrics, err := monitoring.NewMatchMetrics(prometheus.NewRegistry())
	if err != nil {
		return nil, eris.Wrap(err, "match: metrics")
	}

	builder, err := resolve.NewBuilder(resolve.Options{
		Weights:       weights,
		NoName:        noName,
		Threshold:     c.Match.Threshold,
		Tiers:         tables.Tiers,
		Method:        similarity.Method(c.Match.Method),
		VetoThreshold: c.Match.VetoThreshold,
		Workers:       c.Match.Workers,
		BlockTimeout:  c.Match.BlockTimeout(),
		Observer:      metrics,
	})
	if err != nil {
		return nil, eris.Wrap(err, "match: configure builder")
	}

	var run *model.Run
	if st != nil {
		run, err = st.CreateRun(ctx, model.RunParams{
			SourceA:   a.Label,
			SourceB:   b.Label,
			PathA:     opts.A.Path,
			PathB:     opts.B.Path,
			NoName:    noName,
			Threshold: c.Match.Threshold,
			Method:    c.Match.Method,
			Weights:   weights,
			Tiers:     tables.Tiers,
		})
		if err != nil {
			return nil, eris.Wrap(err, "match: create run")
		}
	}

	res, buildErr := builder.Build(ctx, a.Records, b.Records)
	status := model.RunStatusComplete
	switch {
	case buildErr != nil:
		status = model.RunStatusPartial
		log.Warn("build cancelled, keeping partial result", zap.Error(buildErr))
	case len(res.Stats.TimedOut) > 0:
		status = model.RunStatusPartial
	}

	cands := res.Candidates
	if opts.BestOnly {
		cands = append(resolve.BestPerA(cands), model.Failures(cands)...)
	}

	outcome := &matchOutcome{Stats: res.Stats, Status: status}
	if err := writeStitched(opts.Output, a, b, cands, noName, outcome); err != nil {
		failRun(st, run, log)
		return nil, err
	}

	outcome.Report = resolve.BuildReport(a.Records, b.Records, cands, tables.Tiers, a.Label, b.Label)
	fmt.Fprint(out, resolve.FormatReport(outcome.Report))
	if opts.ExplainTop > 0 {
		writeExplanations(out, builder.Scorer(), a.Records, b.Records, cands, opts.ExplainTop)
	}

	// A cancelled build still persists what it finished.
	persistCtx := context.WithoutCancel(ctx)
	summary := res.Stats.Summary()
	if run != nil {
		if _, err := st.SaveCandidates(persistCtx, run.ID, cands); err != nil {
			failRun(st, run, log)
			return nil, eris.Wrap(err, "match: save candidates")
		}
		if err := st.CompleteRun(persistCtx, run.ID, status, &summary); err != nil {
			return nil, eris.Wrap(err, "match: complete run")
		}
		outcome.RunID = run.ID
	}

	if path := c.Metrics.TextfilePath; path != "" {
		metrics.ObserveRun(summary)
		if st != nil {
			if err := metrics.CollectRuns(persistCtx, st, 100); err != nil {
				log.Warn("collect run metrics", zap.Error(err))
			}
		}
		if err := metrics.WriteTextfile(path); err != nil {
			return nil, err
		}
	}

	log.Info("match finished",
		zap.String("status", string(status)),
		zap.Int("candidates", len(model.Scored(cands))),
		zap.Int("rows", outcome.Rows),
		zap.String("output", opts.Output),
	)
	return outcome, buildErr
}

// loadSource applies per-label configuration overrides and loads one side.
func loadSource(ctx context.Context, c *config.Config, spec sourceSpec) (*source.Dataset, error) {
	kindName := spec.Kind
	idColumn := spec.IDColumn
	label := spec.Label
	if sc, ok := c.Sources[sourceLabel(spec)]; ok {
		if sc.Kind != "" {
			kindName = sc.Kind
		}
		if idColumn == "" {
			idColumn = sc.IDColumn
		}
	}

	kind, err := source.ParseKind(kindName)
	if err != nil {
		return nil, eris.Wrap(err, "match: source kind")
	}
	ds, err := source.Load(ctx, kind, spec.Path, source.Options{Label: label, IDColumn: idColumn})
	if err != nil {
		return nil, eris.Wrap(err, "match: load source")
	}
	return ds, nil
}

// sourceLabel is the configuration key for spec: its label, or the
// platform name of its flag kind.
func sourceLabel(spec sourceSpec) string {
	if spec.Label != "" {
		return spec.Label
	}
	if k, err := source.ParseKind(spec.Kind); err == nil {
		return source.DefaultLabel(k)
	}
	return spec.Kind
}

func writeStitched(path string, a, b *source.Dataset, cands []model.Candidate, noName bool, outcome *matchOutcome) error {
	tbl := resolve.Stitch(a.Records, b.Records, cands, resolve.StitchOptions{
		LabelA:    a.Label,
		LabelB:    b.Label,
		IDColumnA: a.IDColumn,
		IDColumnB: b.IDColumn,
		NoName:    noName,
	})

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "match: create output %s", path)
	}
	if err := tbl.WriteCSV(f); err != nil {
		f.Close() //nolint:errcheck
		return eris.Wrap(err, "match: write output")
	}
	if err := f.Close(); err != nil {
		return eris.Wrap(err, "match: close output")
	}
	outcome.Rows = len(tbl.Rows)
	return nil
}

func failRun(st store.Store, run *model.Run, log *zap.Logger) {
	if st == nil || run == nil {
		return
	}
	if err := st.CompleteRun(context.Background(), run.ID, model.RunStatusFailed, nil); err != nil {
		log.Warn("mark run failed", zap.String("run_id", run.ID), zap.Error(err))
	}
}

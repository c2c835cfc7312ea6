package resolve

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/payasparab/addressmatcher/internal/model"
	"github.com/payasparab/addressmatcher/internal/similarity"
)

// Options configures a Builder.
type Options struct {
	// Weights overrides the weight table. When nil, NoName selects between
	// the default and no-name tables.
	Weights model.WeightTable
	NoName  bool
	// Threshold is the acceptance cutoff. Only scores strictly above it are
	// kept.
	Threshold     float64
	Tiers         model.TierTable
	Method        similarity.Method
	VetoThreshold float64
	// Workers bounds the number of blocks scored concurrently.
	Workers int
	// BlockTimeout is a soft per-block deadline. A block that exceeds it
	// stops early and keeps the candidates found so far. Zero disables it.
	BlockTimeout time.Duration
	// Observer, when set, is called once per finished block from a single
	// goroutine.
	Observer Observer
}

// DefaultOptions returns the standard configuration: default weights,
// threshold 60, default tiers, indel ratio, four workers.
func DefaultOptions() Options {
	return Options{
		Threshold:     model.DefaultThreshold,
		Tiers:         model.DefaultTiers(),
		Method:        similarity.MethodIndel,
		VetoThreshold: DefaultVetoThreshold,
		Workers:       4,
	}
}

// Observer receives finished blocks.
type Observer interface {
	ObserveBlock(BlockResult)
}

// BlockResult is the outcome of scoring one block.
type BlockResult struct {
	Key        string
	Candidates []model.Candidate
	Pairs      int64
	TimedOut   bool
	Duration   time.Duration
}

// Sink consumes finished blocks. Blocks arrive in completion order, one at
// a time. A non-nil error stops the run.
type Sink func(BlockResult) error

// Stats summarizes a run.
type Stats struct {
	RecordsA      int
	RecordsB      int
	UnkeyedA      int
	UnkeyedB      int
	SharedKeys    int
	PairsTotal    int64
	PairsCompared int64
	Blocks        int
	Candidates    int
	Failures      int
	TimedOut      []string
	TierCounts    map[string]int
	Duration      time.Duration
}

// Summary converts the stats into the persisted run summary.
func (s Stats) Summary() model.RunSummary {
	tiers := make(map[string]int, len(s.TierCounts))
	for k, v := range s.TierCounts {
		tiers[k] = v
	}
	return model.RunSummary{
		RecordsA:      s.RecordsA,
		RecordsB:      s.RecordsB,
		SharedBlocks:  s.SharedKeys,
		PairsCompared: s.PairsCompared,
		Candidates:    s.Candidates,
		Failures:      s.Failures,
		TimedOut:      len(s.TimedOut),
		TierCounts:    tiers,
		DurationMs:    s.Duration.Milliseconds(),
	}
}

// Result is the collected output of Build.
type Result struct {
	// Candidates are ordered by block key, then by A input order, then by B
	// input order.
	Candidates []model.Candidate
	Stats      Stats
}

// Builder scores every in-block pair of two record collections.
type Builder struct {
	scorer    *Scorer
	threshold float64
	tiers     model.TierTable
	workers   int
	timeout   time.Duration
	observer  Observer
	log       *zap.Logger
}

// progressInterval spaces out progress log lines on long runs.
const progressInterval = 5 * time.Second

// NewBuilder validates opts and returns a Builder.
func NewBuilder(opts Options) (*Builder, error) {
	cmp, err := similarity.New(opts.Method)
	if err != nil {
		return nil, eris.Wrap(err, "resolve: new builder")
	}
	if opts.Tiers == nil {
		opts.Tiers = model.DefaultTiers()
	}
	if err := opts.Tiers.Validate(); err != nil {
		return nil, eris.Wrap(err, "resolve: new builder")
	}
	if opts.Threshold < 0 || opts.Threshold > 100 {
		return nil, eris.Errorf("resolve: threshold %v must be within [0, 100]", opts.Threshold)
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.BlockTimeout < 0 {
		return nil, eris.New("resolve: block timeout must be >= 0")
	}
	weights := opts.Weights
	if weights == nil {
		weights = model.SelectWeights(opts.NoName)
	}
	veto := opts.VetoThreshold
	if veto == 0 {
		veto = DefaultVetoThreshold
	}

	return &Builder{
		scorer:    NewScorer(weights, WithComparator(cmp), WithVetoThreshold(veto)),
		threshold: opts.Threshold,
		tiers:     opts.Tiers.Sorted(),
		workers:   opts.Workers,
		timeout:   opts.BlockTimeout,
		observer:  opts.Observer,
		log:       zap.L().With(zap.String("component", "resolve.builder")),
	}, nil
}

// Scorer returns the scorer the builder uses.
func (b *Builder) Scorer() *Scorer {
	return b.scorer
}

// accepts reports whether score clears the acceptance threshold.
func accepts(score, threshold float64) bool {
	return score > threshold
}

// Build scores all shared blocks and collects the candidates in block-key
// order. The Result is never nil; the error is set only when ctx is
// cancelled, in which case the Result holds the blocks finished so far.
func (b *Builder) Build(ctx context.Context, a, bRecs []model.Record) (*Result, error) {
	var blocks []BlockResult
	stats, err := b.Run(ctx, a, bRecs, func(br BlockResult) error {
		blocks = append(blocks, br)
		return nil
	})

	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Key < blocks[j].Key })
	res := &Result{Stats: stats}
	for _, br := range blocks {
		res.Candidates = append(res.Candidates, br.Candidates...)
	}
	return res, err
}

// Run scores every shared block on a bounded worker pool and hands each
// finished block to sink. sink is only ever called from one goroutine.
func (b *Builder) Run(ctx context.Context, a, bRecs []model.Record, sink Sink) (Stats, error) {
	start := time.Now()
	ix := NewIndex(a, bRecs)
	blocks := ix.Blocks()

	stats := Stats{
		RecordsA:   len(a),
		RecordsB:   len(bRecs),
		SharedKeys: ix.SharedKeys(),
		PairsTotal: ix.PairCount(),
		TierCounts: make(map[string]int),
	}
	stats.UnkeyedA, stats.UnkeyedB = ix.Unkeyed()

	b.log.Info("shared postal codes",
		zap.Int("shared_keys", stats.SharedKeys),
		zap.Int64("pairs", stats.PairsTotal),
		zap.Int("records_a", stats.RecordsA),
		zap.Int("records_b", stats.RecordsB),
		zap.Int("unkeyed_a", stats.UnkeyedA),
		zap.Int("unkeyed_b", stats.UnkeyedB),
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan BlockResult, b.workers)
	done := make(chan struct{})
	var sinkErr error

	go func() {
		defer close(done)
		progress := rate.Sometimes{Interval: progressInterval}
		for br := range results {
			if sinkErr != nil {
				continue
			}
			stats.Blocks++
			stats.PairsCompared += br.Pairs
			for _, c := range br.Candidates {
				if c.Failed() {
					stats.Failures++
					continue
				}
				stats.Candidates++
				stats.TierCounts[c.Tier]++
			}
			if br.TimedOut {
				stats.TimedOut = append(stats.TimedOut, br.Key)
				b.log.Warn("block timed out", zap.String("key", br.Key), zap.Duration("elapsed", br.Duration))
			}
			if b.observer != nil {
				b.observer.ObserveBlock(br)
			}
			if err := sink(br); err != nil {
				sinkErr = err
				cancel()
				continue
			}
			progress.Do(func() {
				b.log.Info("scoring progress",
					zap.Int("blocks_done", stats.Blocks),
					zap.Int("blocks_total", len(blocks)),
					zap.Int64("pairs_compared", stats.PairsCompared),
					zap.Int("candidates", stats.Candidates),
				)
			})
		}
	}()

	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(b.workers)
	for _, blk := range blocks {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			br, err := b.scoreBlock(gctx, blk)
			if err != nil {
				return err
			}
			select {
			case results <- br:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}
	waitErr := g.Wait()
	close(results)
	<-done

	sort.Strings(stats.TimedOut)
	stats.Duration = time.Since(start)

	switch {
	case ctx.Err() != nil:
		b.log.Warn("scoring cancelled", zap.Int("blocks_done", stats.Blocks), zap.Int("blocks_total", len(blocks)))
		return stats, eris.Wrap(ctx.Err(), "resolve: build cancelled")
	case sinkErr != nil:
		return stats, eris.Wrap(sinkErr, "resolve: sink")
	case waitErr != nil:
		return stats, eris.Wrap(waitErr, "resolve: score blocks")
	}

	b.log.Info("scoring complete",
		zap.Int("blocks", stats.Blocks),
		zap.Int64("pairs_compared", stats.PairsCompared),
		zap.Int("candidates", stats.Candidates),
		zap.Int("failures", stats.Failures),
		zap.Int("timed_out", len(stats.TimedOut)),
		zap.Duration("elapsed", stats.Duration),
	)
	return stats, nil
}

// checkEvery is how many pairs are scored between context checks.
const checkEvery = 64

// scoreBlock scores the cross product of one block. It returns an error
// only when ctx is done; a block deadline yields a partial, flagged result.
func (b *Builder) scoreBlock(ctx context.Context, blk Block) (BlockResult, error) {
	start := time.Now()
	br := BlockResult{Key: blk.Key}

	bctx := ctx
	if b.timeout > 0 {
		var cancel context.CancelFunc
		bctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

pairs:
	for _, ra := range blk.A {
		for _, rb := range blk.B {
			if br.Pairs%checkEvery == 0 && bctx.Err() != nil {
				if ctx.Err() != nil {
					return br, ctx.Err()
				}
				br.TimedOut = true
				break pairs
			}
			br.Pairs++
			if c, keep := b.pair(blk.Key, ra, rb); keep {
				br.Candidates = append(br.Candidates, c)
			}
		}
	}

	br.Duration = time.Since(start)
	return br, nil
}

// pair scores one pair and reports whether it belongs in the output.
func (b *Builder) pair(key string, ra, rb model.Record) (model.Candidate, bool) {
	c := model.Candidate{IDA: ra.ID, IDB: rb.ID, Block: key}
	if ra.ID == "" || rb.ID == "" {
		c.Failure = &model.Failure{Reason: model.FailureMissingRecordID}
		return c, true
	}

	score, err := b.scorer.Score(ra, rb)
	if err != nil {
		var f *model.Failure
		if !errors.As(err, &f) {
			f = &model.Failure{Reason: model.FailureScorerPanic, Detail: err.Error()}
		}
		c.Failure = f
		return c, true
	}
	if !accepts(score, b.threshold) {
		return c, false
	}
	c.Score = score
	c.Tier, _ = b.tiers.Classify(score)
	return c, true
}

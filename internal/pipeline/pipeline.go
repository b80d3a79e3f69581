// Package pipeline connects the feed watcher to the decoder and a sink:
// every batch of filing locations is fetched, decoded and stored
// concurrently, and a failing document never stops the batch.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/insiderwatch/internal/form4"
	"github.com/seenimoa/insiderwatch/internal/infra"
	"github.com/seenimoa/insiderwatch/internal/watcher"
	"github.com/seenimoa/insiderwatch/pkg/models"
)

const (
	DefaultWorkers = 4
	DefaultSeenTTL = 24 * time.Hour
)

// Source yields batches of filing locations. *watcher.Watcher satisfies it.
type Source interface {
	Wait(ctx context.Context) ([]string, error)
}

// EnvelopeFetcher returns the submission text for a filing location.
// *edgar.Client satisfies it.
type EnvelopeFetcher interface {
	FetchEnvelope(ctx context.Context, location string) (string, error)
}

// Sink stores decoded filings.
type Sink interface {
	Save(ctx context.Context, f *models.Filing) error
}

// Options configures a Pipeline.
type Options struct {
	Workers int
	// SeenTTL is how long a location or filing id is remembered.
	SeenTTL time.Duration
	Logger  *logrus.Entry
}

// Stats counts what happened to one batch.
type Stats struct {
	Seen         int // locations received
	Skipped      int // already processed, or a filing id already stored
	FetchFailed  int
	DecodeFailed int
	Stored       int
	SinkFailed   int
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Seen += o.Seen
	s.Skipped += o.Skipped
	s.FetchFailed += o.FetchFailed
	s.DecodeFailed += o.DecodeFailed
	s.Stored += o.Stored
	s.SinkFailed += o.SinkFailed
}

// Pipeline processes watcher batches.
type Pipeline struct {
	src     Source
	fetcher EnvelopeFetcher
	sink    Sink
	workers int
	log     *logrus.Entry

	locations *infra.Cache
	filings   *infra.Cache

	mu    sync.Mutex // guards total
	total Stats
}

// New creates a pipeline. src may be nil when only ProcessBatch is used.
func New(src Source, fetcher EnvelopeFetcher, sink Sink, opts Options) *Pipeline {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.SeenTTL <= 0 {
		opts.SeenTTL = DefaultSeenTTL
	}
	if opts.Logger == nil {
		opts.Logger = infra.Discard()
	}
	return &Pipeline{
		src:       src,
		fetcher:   fetcher,
		sink:      sink,
		workers:   opts.Workers,
		log:       opts.Logger.WithField("component", "pipeline"),
		locations: infra.NewCache(opts.SeenTTL),
		filings:   infra.NewCache(opts.SeenTTL),
	}
}

// Run consumes batches until the source stops or ctx is cancelled.
// Both are a normal shutdown and return nil.
func (p *Pipeline) Run(ctx context.Context) error {
	for {
		batch, err := p.src.Wait(ctx)
		switch {
		case errors.Is(err, watcher.ErrStopped), ctx.Err() != nil:
			return nil
		case err != nil:
			return err
		}

		stats := p.ProcessBatch(ctx, batch)
		p.locations.Cleanup()
		p.filings.Cleanup()

		if stats.Seen > 0 {
			p.log.WithFields(logrus.Fields{
				"seen":          stats.Seen,
				"stored":        stats.Stored,
				"skipped":       stats.Skipped,
				"fetch_failed":  stats.FetchFailed,
				"decode_failed": stats.DecodeFailed,
				"sink_failed":   stats.SinkFailed,
				"remembered":    p.locations.Len(),
			}).Info("batch processed")
		}
	}
}

// Totals returns the counts accumulated over every processed batch.
func (p *Pipeline) Totals() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}

// ProcessBatch fetches, decodes and stores every new location in the batch.
func (p *Pipeline) ProcessBatch(ctx context.Context, locations []string) Stats {
	var (
		mu    sync.Mutex
		stats = Stats{Seen: len(locations)}
	)
	count := func(f func(*Stats)) {
		mu.Lock()
		f(&stats)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for _, loc := range locations {
		if !p.locations.Add(loc, struct{}{}) {
			count(func(s *Stats) { s.Skipped++ })
			continue
		}
		g.Go(func() error {
			count(p.process(gctx, loc))
			return nil // per-document failures never cancel the batch
		})
	}
	_ = g.Wait()

	p.mu.Lock()
	p.total.Add(stats)
	p.mu.Unlock()
	return stats
}

// process handles a single location and returns the counter to bump.
func (p *Pipeline) process(ctx context.Context, loc string) func(*Stats) {
	log := p.log.WithField("location", loc)

	raw, err := p.fetcher.FetchEnvelope(ctx, loc)
	if err != nil {
		// Forget the location so a later batch may retry it.
		p.locations.Invalidate(loc)
		if ctx.Err() == nil {
			log.WithError(err).Warn("fetch failed")
		}
		return func(s *Stats) { s.FetchFailed++ }
	}

	filing, err := form4.Decode(raw)
	if err != nil {
		log.WithError(err).Warn("decode failed")
		return func(s *Stats) { s.DecodeFailed++ }
	}
	log = log.WithField("filing", filing.ID)

	if !p.filings.Add(filing.ID, loc) {
		if first, ok := p.filings.Get(filing.ID); ok {
			log = log.WithField("first_location", first)
		}
		log.Debug("filing already stored")
		return func(s *Stats) { s.Skipped++ }
	}
	if err := p.sink.Save(ctx, filing); err != nil {
		p.filings.Invalidate(filing.ID)
		log.WithError(err).Error("store failed")
		return func(s *Stats) { s.SinkFailed++ }
	}

	log.WithFields(logrus.Fields{
		"issuer":         filing.Issuer.TradingSymbol,
		"reporters":      len(filing.Reporters),
		"non_derivative": len(filing.NonDerivative),
		"derivative":     len(filing.Derivative),
	}).Debug("filing stored")
	return func(s *Stats) { s.Stored++ }
}

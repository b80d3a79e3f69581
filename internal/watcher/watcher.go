// Package watcher polls the EDGAR "latest filings" Atom feed and publishes
// the locations of newly published filings.
//
// One background goroutine per Watcher fetches the feed on a fixed
// interval. Entries are deduplicated against a watermark (the newest
// "updated" timestamp seen so far) and each tick's result is published to
// a single-slot Mailbox. Delivery is latest-value: a consumer that is more
// than one tick behind silently loses the batch it did not pick up in time.
package watcher

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/sirupsen/logrus"

	"github.com/seenimoa/insiderwatch/internal/infra"
)

const (
	// DefaultFeedURL lists the most recent Form 4 filings, newest first.
	DefaultFeedURL = "https://www.sec.gov/cgi-bin/browse-edgar?action=getcurrent&CIK=&type=4&company=&dateb=&owner=include&start=0&count=100&output=atom"

	// DefaultTitlePrefix selects Form 4 entries and excludes amendments ("4/A - ...").
	DefaultTitlePrefix = "4 "

	DefaultInterval = 30 * time.Second
)

// ErrStopped is returned by Wait once the watcher is closed and every
// published batch has been handed out.
var ErrStopped = errors.New("watcher: stopped")

// Fetcher retrieves a URL as text. Any error makes the tick a no-op.
type Fetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// Options configures a Watcher.
type Options struct {
	URL         string
	Interval    time.Duration
	TitlePrefix string
	// Since is the initial watermark; entries at or before it are never
	// delivered. Zero means the Unix epoch.
	Since  time.Time
	Logger *logrus.Entry
}

func (o *Options) setDefaults() {
	if o.URL == "" {
		o.URL = DefaultFeedURL
	}
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.TitlePrefix == "" {
		o.TitlePrefix = DefaultTitlePrefix
	}
	if o.Since.IsZero() {
		o.Since = time.Unix(0, 0).UTC()
	}
	if o.Logger == nil {
		o.Logger = infra.Discard()
	}
}

// Watcher is a running feed poller. Create it with New and release it
// with Close.
type Watcher struct {
	opts    Options
	fetcher Fetcher
	parser  *gofeed.Parser
	log     *logrus.Entry

	mu        sync.Mutex // guards watermark
	watermark time.Time

	box  *Mailbox[[]string]
	seen atomic.Uint64 // last mailbox version handed out by Wait

	cancel    context.CancelFunc
	closeOnce sync.Once
	done      chan struct{}
}

// New starts a watcher. The first poll happens immediately.
func New(fetcher Fetcher, opts Options) *Watcher {
	w := newWatcher(fetcher, opts)
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	go w.run(ctx)
	return w
}

func newWatcher(fetcher Fetcher, opts Options) *Watcher {
	opts.setDefaults()
	return &Watcher{
		opts:      opts,
		fetcher:   fetcher,
		parser:    gofeed.NewParser(),
		log:       opts.Logger.WithField("component", "watcher"),
		watermark: opts.Since,
		box:       NewMailbox[[]string](),
		cancel:    func() {},
		done:      make(chan struct{}),
	}
}

// Wait blocks until a batch newer than the one this watcher last returned
// is published and returns it. The batch may be empty. After Close it
// returns ErrStopped.
//
// Wait is meant for a single consumer.
func (w *Watcher) Wait(ctx context.Context) ([]string, error) {
	batch, version, err := w.box.Wait(ctx, w.seen.Load())
	if err != nil {
		return nil, err
	}
	w.seen.Store(version)
	return batch, nil
}

// Pending returns how many locations sit in a published batch that Wait
// has not handed out yet.
func (w *Watcher) Pending() int {
	batch, version := w.box.Latest()
	if version <= w.seen.Load() {
		return 0
	}
	return len(batch)
}

// Watermark returns the timestamp of the newest entry processed so far.
func (w *Watcher) Watermark() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.watermark
}

// Close stops the poll loop. An in-flight fetch is cancelled and its
// result dropped; Close does not wait for it. Extra calls are no-ops.
func (w *Watcher) Close() {
	w.closeOnce.Do(func() {
		w.cancel()
		w.box.Close()
	})
}

// Done is closed when the poll loop has exited.
func (w *Watcher) Done() <-chan struct{} { return w.done }

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	for {
		w.poll(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// poll runs one tick. Failures are logged and leave the watermark alone.
func (w *Watcher) poll(ctx context.Context) {
	batch, ok := w.tick(ctx)
	if !ok || ctx.Err() != nil {
		return
	}
	w.box.Publish(batch)
}

// tick fetches and filters the feed. The bool is false when the tick
// produced nothing (fetch, parse or timestamp failure).
func (w *Watcher) tick(ctx context.Context) ([]string, bool) {
	body, err := w.fetcher.FetchText(ctx, w.opts.URL)
	if err != nil {
		if ctx.Err() == nil {
			w.log.WithError(err).Warn("feed fetch failed")
		}
		return nil, false
	}

	feed, err := w.parser.ParseString(body)
	if err != nil {
		w.log.WithError(err).Warn("feed parse failed")
		return nil, false
	}
	if len(feed.Items) == 0 {
		w.log.Debug("feed has no entries")
		return nil, false
	}
	candidate := feed.Items[0].UpdatedParsed
	if candidate == nil {
		w.log.WithField("title", feed.Items[0].Title).Warn("first feed entry has no usable updated timestamp")
		return nil, false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	previous := w.watermark

	batch := make([]string, 0)
	for _, item := range feed.Items {
		if !strings.HasPrefix(item.Title, w.opts.TitlePrefix) {
			continue
		}
		if item.UpdatedParsed == nil || !item.UpdatedParsed.After(previous) {
			continue
		}
		link := item.Link
		if link == "" && len(item.Links) > 0 {
			link = item.Links[0]
		}
		loc, err := DocumentLocation(link)
		if err != nil {
			w.log.WithError(err).WithField("title", item.Title).Debug("skipping entry")
			continue
		}
		batch = append(batch, loc)
	}

	if candidate.After(previous) {
		w.watermark = *candidate
	}
	w.log.WithFields(logrus.Fields{
		"entries":   len(feed.Items),
		"new":       len(batch),
		"watermark": w.watermark.Format(time.RFC3339),
	}).Debug("feed polled")
	return batch, true
}

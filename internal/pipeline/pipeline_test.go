package pipeline

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/insiderwatch/internal/watcher"
	"github.com/seenimoa/insiderwatch/pkg/models"
)

func readFixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile("../form4/testdata/" + name)
	require.NoError(t, err)
	return string(b)
}

type fakeFetcher struct {
	mu    sync.Mutex
	docs  map[string]string
	errs  map[string]error
	calls map[string]int
}

func (f *fakeFetcher) FetchEnvelope(_ context.Context, loc string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[loc]++
	if err := f.errs[loc]; err != nil {
		return "", err
	}
	doc, ok := f.docs[loc]
	if !ok {
		return "", errors.New("not found")
	}
	return doc, nil
}

func (f *fakeFetcher) callCount(loc string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[loc]
}

type memSink struct {
	mu    sync.Mutex
	saved []*models.Filing
	err   error
}

func (s *memSink) Save(_ context.Context, f *models.Filing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, f)
	return nil
}

func (s *memSink) ids() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for _, f := range s.saved {
		ids = append(ids, f.ID)
	}
	return ids
}

func TestProcessBatchSkipsFailures(t *testing.T) {
	fetch := &fakeFetcher{
		docs: map[string]string{
			"loc/good":    readFixture(t, "single_sale.txt"),
			"loc/joint":   readFixture(t, "joint_derivative.txt"),
			"loc/garbage": "<SEC-DOCUMENT>nothing useful</SEC-DOCUMENT>",
		},
		errs: map[string]error{"loc/down": errors.New("503")},
	}
	sink := &memSink{}
	p := New(nil, fetch, sink, Options{Workers: 2})

	stats := p.ProcessBatch(context.Background(), []string{"loc/good", "loc/down", "loc/garbage", "loc/joint"})

	assert.Equal(t, Stats{Seen: 4, FetchFailed: 1, DecodeFailed: 1, Stored: 2}, stats)
	assert.ElementsMatch(t, []string{"0001234567-24-000001", "0000950170-24-004321"}, sink.ids())
	assert.Equal(t, stats, p.Totals())
}

func TestProcessBatchDeduplicates(t *testing.T) {
	doc := readFixture(t, "single_sale.txt")
	fetch := &fakeFetcher{docs: map[string]string{"loc/a": doc, "loc/a-mirror": doc}}
	sink := &memSink{}
	p := New(nil, fetch, sink, Options{})

	first := p.ProcessBatch(context.Background(), []string{"loc/a"})
	assert.Equal(t, 1, first.Stored)

	second := p.ProcessBatch(context.Background(), []string{"loc/a", "loc/a-mirror"})
	assert.Equal(t, Stats{Seen: 2, Skipped: 2}, second)
	assert.Equal(t, 1, fetch.callCount("loc/a"), "a seen location is not fetched again")
	assert.Len(t, sink.ids(), 1)

	assert.Equal(t, 3, p.Totals().Seen)

	firstLoc, ok := p.filings.Get("0001234567-24-000001")
	require.True(t, ok)
	assert.Equal(t, "loc/a", firstLoc, "the filing id remembers where it was first stored")
	assert.Equal(t, 2, p.locations.Len())
}

func TestProcessBatchRetriesFailedFetch(t *testing.T) {
	fetch := &fakeFetcher{errs: map[string]error{"loc/a": errors.New("timeout")}}
	sink := &memSink{}
	p := New(nil, fetch, sink, Options{})

	assert.Equal(t, 1, p.ProcessBatch(context.Background(), []string{"loc/a"}).FetchFailed)

	fetch.mu.Lock()
	fetch.errs = nil
	fetch.docs = map[string]string{"loc/a": readFixture(t, "single_sale.txt")}
	fetch.mu.Unlock()

	assert.Equal(t, 1, p.ProcessBatch(context.Background(), []string{"loc/a"}).Stored)
}

func TestProcessBatchSinkFailure(t *testing.T) {
	fetch := &fakeFetcher{docs: map[string]string{"loc/a": readFixture(t, "single_sale.txt")}}
	sink := &memSink{err: errors.New("disk full")}
	p := New(nil, fetch, sink, Options{})

	stats := p.ProcessBatch(context.Background(), []string{"loc/a"})
	assert.Equal(t, Stats{Seen: 1, SinkFailed: 1}, stats)
}

// batchSource hands out queued batches, then blocks until ctx is done or
// reports ErrStopped when closed.
type batchSource struct {
	batches chan []string
}

func (s *batchSource) Wait(ctx context.Context) ([]string, error) {
	select {
	case b, ok := <-s.batches:
		if !ok {
			return nil, watcher.ErrStopped
		}
		return b, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestRunStopsWithSource(t *testing.T) {
	src := &batchSource{batches: make(chan []string, 2)}
	src.batches <- []string{"loc/a"}
	src.batches <- []string{}
	close(src.batches)

	fetch := &fakeFetcher{docs: map[string]string{"loc/a": readFixture(t, "single_sale.txt")}}
	sink := &memSink{}
	p := New(src, fetch, sink, Options{})

	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, []string{"0001234567-24-000001"}, sink.ids())
}

func TestRunStopsOnCancel(t *testing.T) {
	src := &batchSource{batches: make(chan []string)}
	p := New(src, &fakeFetcher{}, &memSink{}, Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.NoError(t, p.Run(ctx))
}

func TestRunReturnsSourceError(t *testing.T) {
	boom := errors.New("boom")
	p := New(sourceFunc(func(context.Context) ([]string, error) { return nil, boom }), &fakeFetcher{}, &memSink{}, Options{})
	assert.ErrorIs(t, p.Run(context.Background()), boom)
}

type sourceFunc func(ctx context.Context) ([]string, error)

func (f sourceFunc) Wait(ctx context.Context) ([]string, error) { return f(ctx) }

// Package store persists decoded filings.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/seenimoa/insiderwatch/pkg/models"
)

// Sink receives decoded filings. Implementations must be safe for
// concurrent use.
type Sink interface {
	Save(ctx context.Context, f *models.Filing) error
	Close() error
}

// Open returns the sink named by driver: "sqlite", "jsonl" or "none".
// For jsonl, out receives the records; path is the database file for sqlite.
func Open(driver, path string, out io.Writer) (Sink, error) {
	switch driver {
	case "sqlite":
		return NewSQLite(path)
	case "jsonl":
		return NewJSONLines(out), nil
	case "", "none":
		return Discard{}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", driver)
}

// JSONLines writes one JSON object per filing.
type JSONLines struct {
	mu  sync.Mutex
	enc *json.Encoder
}

var _ Sink = (*JSONLines)(nil)

func NewJSONLines(w io.Writer) *JSONLines {
	return &JSONLines{enc: json.NewEncoder(w)}
}

func (j *JSONLines) Save(_ context.Context, f *models.Filing) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.enc.Encode(f); err != nil {
		return fmt.Errorf("encode filing %s: %w", f.ID, err)
	}
	return nil
}

func (j *JSONLines) Close() error { return nil }

// Discard drops every filing.
type Discard struct{}

func (Discard) Save(context.Context, *models.Filing) error { return nil }
func (Discard) Close() error                                { return nil }

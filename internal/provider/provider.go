package provider

import (
	"context"
)

// Snapshot is one incremental state of a streaming completion. Content
// always carries the full accumulated text so far, never a delta, so a
// consumer can persist the latest truth without applying patches. Tokens
// and Cost are running estimates until the provider's final usage data
// arrives; the last snapshot before the channel closes is authoritative.
type Snapshot struct {
	Content string
	Tokens  int
	Cost    float64
	Model   string
	// Err signals abnormal termination. A snapshot with Err set is the
	// last one on the channel; remaining output is never silently dropped
	// without it.
	Err error
}

// Streamer wraps one completion API behind a uniform incremental-output
// contract. The returned channel is a lazy, single-pass, forward-only
// sequence: it is closed after the final snapshot, and consuming it twice
// is undefined.
type Streamer interface {
	StreamCompletion(ctx context.Context, prompt, model string) (<-chan Snapshot, error)
	Name() string
}

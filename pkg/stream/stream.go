// Package stream defines the pull-based entry stream contract shared by
// file streams, sources and the merge.
package stream

import (
	"context"
	"errors"

	"github.com/bascanada/tentacle/pkg/pattern"
)

// ErrNotImplemented is returned by sources that declare a shape but do not
// yet stream (the journal variant).
var ErrNotImplemented = errors.New("stream: not implemented")

// Entry pairs a raw line with its parsed fields. Produced by a file stream,
// consumed exactly once by the merge and then by the encoder.
type Entry struct {
	OriginalLine string
	Parsed       pattern.ParsedLine
}

// Stream is a lazy, single-consumer sequence of Entry values. Next blocks
// the calling goroutine until an item is ready, the stream is exhausted
// (io.EOF), ctx is cancelled, or an unrecoverable error occurs. A Stream
// that is watching a live file blocks past logical end-of-file instead of
// returning io.EOF, resuming once new data (or cancellation) arrives.
//
// Close releases any held resources (file handles, watches). It is safe to
// call more than once and is called on normal completion, cancellation, or
// when a consumer abandons the stream early.
type Stream interface {
	Next(ctx context.Context) (Entry, error)
	Close() error
}

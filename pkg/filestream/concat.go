package filestream

import (
	"context"
	"io"
	"log/slog"

	"github.com/bascanada/tentacle/pkg/ioworker"
	"github.com/bascanada/tentacle/pkg/pattern"
	"github.com/bascanada/tentacle/pkg/querycontext"
	"github.com/bascanada/tentacle/pkg/stream"
)

// Concat sequences per-file streams for a single source's resolved paths:
// history files first, the live file last. Only the last file honors
// watch mode past EOF.
type Concat struct {
	paths       []string
	linePattern *pattern.LinePattern
	qc          *querycontext.QueryContext
	pool        *ioworker.Pool
	maxLineLen  int
	logger      *slog.Logger

	idx     int
	current *File
}

// NewConcat builds a Concat stream over paths, already ordered by the
// resolver. maxLineLen <= 0 falls back to DefaultMaxLineLength.
func NewConcat(paths []string, linePattern *pattern.LinePattern, qc *querycontext.QueryContext, pool *ioworker.Pool, maxLineLen int, logger *slog.Logger) *Concat {
	return &Concat{paths: paths, linePattern: linePattern, qc: qc, pool: pool, maxLineLen: maxLineLen, logger: logger}
}

// Next implements stream.Stream.
func (c *Concat) Next(ctx context.Context) (stream.Entry, error) {
	for {
		if c.current == nil {
			if c.idx >= len(c.paths) {
				return stream.Entry{}, io.EOF
			}
			isLast := c.idx == len(c.paths)-1
			c.current = New(c.paths[c.idx], c.linePattern, c.qc, c.pool, isLast, c.maxLineLen, c.logger)
			c.idx++
		}

		entry, err := c.current.Next(ctx)
		if err == nil {
			return entry, nil
		}
		if err == io.EOF {
			c.current.Close()
			c.current = nil
			continue
		}
		return stream.Entry{}, err
	}
}

// Close releases the currently open file, if any.
func (c *Concat) Close() error {
	if c.current != nil {
		return c.current.Close()
	}
	return nil
}

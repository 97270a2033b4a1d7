// Package merge implements the k-way lazy merge of N source streams into a
// single sequence with non-decreasing timestamps, isolating per-source
// failures as synthetic in-band error entries.
package merge

import (
	"context"
	"io"
	"log/slog"
	"sort"

	"github.com/bascanada/tentacle/pkg/pattern"
	"github.com/bascanada/tentacle/pkg/stream"
)

// errorMessage is the fixed text of the synthetic entry injected when a
// source fails mid-stream.
const errorMessage = "A tentacle failed while retrieving the log."

type sourceState int

const (
	needsPoll sourceState = iota
	delivered
	finished
	failedState
)

type bufItem struct {
	ts     uint64
	srcIdx int
	entry  stream.Entry
}

type indexedResult struct {
	idx   int
	entry stream.Entry
	err   error
}

// Merge is a k-way lazy merge over a fixed set of source streams, one per
// requested source id, indexed in request order (used as the deterministic
// tie-break when two sources share a timestamp: the lower source index
// sorts first, regardless of which goroutine's poll result arrives first).
type Merge struct {
	streams []stream.Stream
	states  []sourceState
	inFlt   []bool
	results chan indexedResult

	buffer           []bufItem
	runningSources   int
	currentTimestamp uint64

	logger *slog.Logger
}

// New builds a Merge over streams, one per source in request order.
func New(streams []stream.Stream, logger *slog.Logger) *Merge {
	if logger == nil {
		logger = slog.Default()
	}
	n := len(streams)
	states := make([]sourceState, n)
	return &Merge{
		streams:        streams,
		states:         states,
		inFlt:          make([]bool, n),
		results:        make(chan indexedResult, n),
		runningSources: n,
		logger:         logger,
	}
}

// Next implements stream.Stream. Each call performs exactly one demand:
// it launches polls for every source awaiting one, emits a buffered entry
// if the emission rule is satisfied, or waits for the next source result
// and retries.
func (m *Merge) Next(ctx context.Context) (stream.Entry, error) {
	for {
		select {
		case <-ctx.Done():
			return stream.Entry{}, ctx.Err()
		default:
		}

		for i, st := range m.states {
			if st == needsPoll && !m.inFlt[i] {
				m.inFlt[i] = true
				go func(i int) {
					e, err := m.streams[i].Next(ctx)
					m.results <- indexedResult{idx: i, entry: e, err: err}
				}(i)
			}
		}

		if m.runningSources == 0 && len(m.buffer) == 0 {
			return stream.Entry{}, io.EOF
		}

		if m.runningSources <= len(m.buffer) && len(m.buffer) > 0 {
			item := m.buffer[0]
			m.buffer = m.buffer[1:]
			m.currentTimestamp = item.ts
			if m.states[item.srcIdx] == delivered {
				m.states[item.srcIdx] = needsPoll
			}
			return item.entry, nil
		}

		var res indexedResult
		select {
		case <-ctx.Done():
			return stream.Entry{}, ctx.Err()
		case res = <-m.results:
		}
		m.inFlt[res.idx] = false

		switch {
		case res.err == nil:
			m.insert(res.idx, res.entry.Parsed.Timestamp, res.entry)
			m.states[res.idx] = delivered
		case res.err == io.EOF:
			m.states[res.idx] = finished
			m.runningSources--
		default:
			m.logger.Error("source stream failed", "source_index", res.idx, "error", res.err)
			level := "ERROR"
			synthetic := stream.Entry{
				Parsed: pattern.ParsedLine{
					Timestamp: m.currentTimestamp,
					Loglevel:  &level,
					Message:   errorMessage,
				},
			}
			m.insert(res.idx, m.currentTimestamp, synthetic)
			m.states[res.idx] = failedState
			m.runningSources--
		}
	}
}

// insert places entry into the sorted buffer, breaking ties on source
// index so the result is independent of goroutine completion order.
func (m *Merge) insert(srcIdx int, ts uint64, entry stream.Entry) {
	m.buffer = append(m.buffer, bufItem{ts: ts, srcIdx: srcIdx, entry: entry})
	sort.SliceStable(m.buffer, func(i, j int) bool {
		if m.buffer[i].ts != m.buffer[j].ts {
			return m.buffer[i].ts < m.buffer[j].ts
		}
		return m.buffer[i].srcIdx < m.buffer[j].srcIdx
	})
}

// Close releases every underlying source stream.
func (m *Merge) Close() error {
	var firstErr error
	for _, s := range m.streams {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

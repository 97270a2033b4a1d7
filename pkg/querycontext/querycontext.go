// Package querycontext carries the immutable filter and options for a
// single request across every source stream it touches.
package querycontext

import "github.com/bascanada/tentacle/pkg/pattern"

// QueryContext is immutable once built and shared by reference across all
// source streams of a request.
type QueryContext struct {
	FromMs    uint64
	LogLevels map[string]struct{} // nil means "no filter"
	Watch     bool
}

// New builds a QueryContext. levels may be nil or empty to mean "no filter";
// entries are expected upper-cased by the caller (the transport adapter).
func New(fromMs uint64, levels []string, watch bool) *QueryContext {
	qc := &QueryContext{FromMs: fromMs, Watch: watch}
	if len(levels) > 0 {
		qc.LogLevels = make(map[string]struct{}, len(levels))
		for _, l := range levels {
			qc.LogLevels[l] = struct{}{}
		}
	}
	return qc
}

// Matches reports whether a parsed line satisfies the context's filter:
// timestamp >= from_ms AND (loglevels absent OR the line's loglevel is a
// member of loglevels).
func (qc *QueryContext) Matches(p pattern.ParsedLine) bool {
	if p.Timestamp < qc.FromMs {
		return false
	}
	if qc.LogLevels == nil {
		return true
	}
	if p.Loglevel == nil {
		return false
	}
	_, ok := qc.LogLevels[*p.Loglevel]
	return ok
}

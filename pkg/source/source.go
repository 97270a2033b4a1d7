// Package source declares the log source tagged union and the immutable
// registry built from it at startup.
package source

import (
	"context"
	"log/slog"
	"regexp"

	"github.com/bascanada/tentacle/pkg/filestream"
	"github.com/bascanada/tentacle/pkg/ioworker"
	"github.com/bascanada/tentacle/pkg/pattern"
	"github.com/bascanada/tentacle/pkg/querycontext"
	"github.com/bascanada/tentacle/pkg/resolve"
	"github.com/bascanada/tentacle/pkg/stream"
)

// Kind distinguishes the two LogSource variants.
type Kind string

const (
	KindFile    Kind = "file"
	KindJournal Kind = "journal"
)

// Descriptor is the JSON shape returned by list_sources.
type Descriptor struct {
	ID          string `json:"id"`
	SrcType     string `json:"src_type"`
	LinePattern string `json:"line_pattern,omitempty"`
	FilePattern string `json:"file_pattern,omitempty"`
	Unit        string `json:"unit,omitempty"`
}

// Source is the capability set shared by both LogSource variants: an id, a
// line pattern, and the ability to open a stream. The journal variant
// exposes the shape but fails to open with stream.ErrNotImplemented.
type Source interface {
	ID() string
	LinePattern() *pattern.LinePattern
	Describe() Descriptor
	Open(ctx context.Context, qc *querycontext.QueryContext) (stream.Stream, error)
}

// File is the file-backed LogSource variant: a regex over absolute paths
// with an optional named "rotation" group, plus the line pattern used to
// parse each matched file's lines.
type File struct {
	id           string
	filePattern  *regexp.Regexp
	filePatternS string
	linePattern  *pattern.LinePattern
	maxLineLen   int
	pool         *ioworker.Pool
	logger       *slog.Logger
}

// NewFile builds a file source. maxLineLen <= 0 falls back to
// filestream.DefaultMaxLineLength.
func NewFile(id string, filePattern *regexp.Regexp, linePattern *pattern.LinePattern, maxLineLen int, pool *ioworker.Pool, logger *slog.Logger) *File {
	return &File{
		id:           id,
		filePattern:  filePattern,
		filePatternS: filePattern.String(),
		linePattern:  linePattern,
		maxLineLen:   maxLineLen,
		pool:         pool,
		logger:       logger,
	}
}

func (f *File) ID() string                        { return f.id }
func (f *File) LinePattern() *pattern.LinePattern  { return f.linePattern }
func (f *File) Describe() Descriptor {
	return Descriptor{ID: f.id, SrcType: string(KindFile), LinePattern: f.linePattern.Raw, FilePattern: f.filePatternS}
}

// Open resolves the source's rotated files and returns a single stream
// that concatenates them in resolver order.
func (f *File) Open(ctx context.Context, qc *querycontext.QueryContext) (stream.Stream, error) {
	paths, err := resolve.Resolve(ctx, f.pool, f.filePattern, qc.FromMs)
	if err != nil {
		return nil, err
	}
	return filestream.NewConcat(paths, f.linePattern, qc, f.pool, f.maxLineLen, f.logger), nil
}

// Journal is the journal-backed LogSource variant. Declared per the data
// model but not implemented: Open always fails.
type Journal struct {
	id          string
	unit        string
	linePattern *pattern.LinePattern
}

// NewJournal builds a journal source descriptor.
func NewJournal(id, unit string, linePattern *pattern.LinePattern) *Journal {
	return &Journal{id: id, unit: unit, linePattern: linePattern}
}

func (j *Journal) ID() string                       { return j.id }
func (j *Journal) LinePattern() *pattern.LinePattern { return j.linePattern }
func (j *Journal) Describe() Descriptor {
	return Descriptor{ID: j.id, SrcType: string(KindJournal), LinePattern: j.linePattern.Raw, Unit: j.unit}
}

func (j *Journal) Open(ctx context.Context, qc *querycontext.QueryContext) (stream.Stream, error) {
	return nil, stream.ErrNotImplemented
}

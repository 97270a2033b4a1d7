// Package filestream implements the per-file lazy line stream: it opens a
// plain or gzipped file on first demand, splits it into lines, parses and
// filters each one, and optionally remains pending at EOF to tail a live
// file.
package filestream

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/klauspost/pgzip"

	"github.com/bascanada/tentacle/pkg/ioworker"
	"github.com/bascanada/tentacle/pkg/pattern"
	"github.com/bascanada/tentacle/pkg/querycontext"
	"github.com/bascanada/tentacle/pkg/stream"
)

// DefaultMaxLineLength is the line length above which a line is discarded
// as a synthetic error entry instead of being parsed.
const DefaultMaxLineLength = 2048

// pollInterval is the fallback wake-up cadence used when fsnotify is
// unavailable (e.g. a network filesystem without inotify support).
const pollInterval = time.Second

// File is a lazy, single-file line stream. The file is opened on the first
// call to Next, never at construction.
type File struct {
	path        string
	linePattern *pattern.LinePattern
	qc          *querycontext.QueryContext
	pool        *ioworker.Pool
	isLast      bool
	maxLineLen  int
	logger      *slog.Logger

	opened  bool
	closed  bool
	reader  io.ReadCloser
	br      *bufio.Reader
	year    string
	carry   []byte
	watcher *fsnotify.Watcher
}

// New builds a File stream for path. isLast marks this as the final file
// in its source's resolver order: only the last file honors qc.Watch past
// EOF. maxLineLen <= 0 falls back to DefaultMaxLineLength.
func New(path string, linePattern *pattern.LinePattern, qc *querycontext.QueryContext, pool *ioworker.Pool, isLast bool, maxLineLen int, logger *slog.Logger) *File {
	if logger == nil {
		logger = slog.Default()
	}
	if maxLineLen <= 0 {
		maxLineLen = DefaultMaxLineLength
	}
	return &File{
		path:        path,
		linePattern: linePattern,
		qc:          qc,
		pool:        pool,
		isLast:      isLast,
		maxLineLen:  maxLineLen,
		logger:      logger,
	}
}

func (f *File) open(ctx context.Context) error {
	if f.opened {
		return nil
	}
	f.opened = true

	type opened struct {
		file *os.File
		gz   io.Reader
		year string
	}
	res := <-ioworker.Submit(f.pool, func() (opened, error) {
		file, err := os.Open(f.path)
		if err != nil {
			return opened{}, err
		}
		info, err := file.Stat()
		if err != nil {
			file.Close()
			return opened{}, err
		}
		o := opened{file: file, year: strconv.Itoa(info.ModTime().Year())}
		if strings.HasSuffix(f.path, ".gz") {
			gz, err := pgzip.NewReader(file)
			if err != nil {
				file.Close()
				return opened{}, err
			}
			o.gz = gz
		}
		return o, nil
	})
	if res.Err != nil {
		return res.Err
	}
	f.year = res.Value.year

	var r io.ReadCloser = res.Value.file
	if res.Value.gz != nil {
		r = struct {
			io.Reader
			io.Closer
		}{Reader: res.Value.gz, Closer: r}
	}
	f.reader = r
	f.br = bufio.NewReaderSize(r, 64*1024)
	return nil
}

// Next implements stream.Stream.
func (f *File) Next(ctx context.Context) (stream.Entry, error) {
	if err := f.open(ctx); err != nil {
		return stream.Entry{}, err
	}

	for {
		select {
		case <-ctx.Done():
			return stream.Entry{}, ctx.Err()
		default:
		}

		raw, err := f.br.ReadBytes('\n')
		if err != nil && err != io.EOF {
			f.logger.Error("file stream read error", "path", f.path, "error", err)
			f.Close()
			return stream.Entry{}, io.EOF
		}

		terminated := err == nil
		combined := raw
		if len(f.carry) > 0 {
			combined = append(append([]byte(nil), f.carry...), raw...)
		}

		if !terminated {
			if len(combined) == 0 {
				if f.qc.Watch && f.isLast {
					f.carry = nil
					if werr := f.awaitMore(ctx); werr != nil {
						return stream.Entry{}, werr
					}
					continue
				}
				f.Close()
				return stream.Entry{}, io.EOF
			}

			if f.qc.Watch && f.isLast {
				f.carry = combined
				if werr := f.awaitMore(ctx); werr != nil {
					return stream.Entry{}, werr
				}
				continue
			}

			// Final unterminated line of a finished file: flush it.
			f.carry = nil
			entry, matched := f.parseAndFilter(combined)
			if matched {
				return entry, nil
			}
			f.Close()
			return stream.Entry{}, io.EOF
		}

		f.carry = nil
		entry, matched := f.parseAndFilter(combined)
		if matched {
			return entry, nil
		}
	}
}

func (f *File) parseAndFilter(raw []byte) (stream.Entry, bool) {
	line := strings.TrimSuffix(strings.TrimSuffix(string(raw), "\n"), "\r")

	if len(line) > f.maxLineLen {
		level := "ERROR"
		msg := fmt.Sprintf("line exceeds max length (%d bytes), discarded", f.maxLineLen)
		entry := stream.Entry{
			OriginalLine: msg,
			Parsed: pattern.ParsedLine{
				Timestamp: 0,
				Loglevel:  &level,
				Message:   msg,
			},
		}
		return entry, true
	}

	parsed := pattern.Parse(line, f.linePattern, f.year)
	if !f.qc.Matches(parsed) {
		return stream.Entry{}, false
	}
	return stream.Entry{OriginalLine: line, Parsed: parsed}, true
}

// awaitMore blocks until the live file may have new data: an fsnotify event
// on its parent directory, a periodic poll tick, or context cancellation.
func (f *File) awaitMore(ctx context.Context) error {
	if f.watcher == nil {
		if w, err := fsnotify.NewWatcher(); err == nil {
			if err := w.Add(filepath.Dir(f.path)); err == nil {
				f.watcher = w
			} else {
				w.Close()
			}
		}
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	if f.watcher != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.watcher.Events:
			return nil
		case <-f.watcher.Errors:
			return nil
		case <-ticker.C:
			return nil
		}
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ticker.C:
		return nil
	}
}

// Close releases the file handle and any watch resources. Safe to call
// more than once.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	if f.watcher != nil {
		f.watcher.Close()
	}
	if f.reader != nil {
		return f.reader.Close()
	}
	return nil
}

// Package resolve enumerates and orders the rotated files backing a file
// source.
package resolve

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/bascanada/tentacle/pkg/apperr"
	"github.com/bascanada/tentacle/pkg/ioworker"
)

// match is one directory entry that matched a file pattern, carrying the
// fields needed to order it.
type match struct {
	path     string
	rotation int
	modMs    int64
}

// Resolve enumerates the parent directory of filePattern's source text and
// returns the absolute paths of entries matching it in full, ordered with
// older rotation files first and the live file last, filtered by fromMs
// when non-zero. Directory reads run on pool so the caller's goroutine
// never blocks on disk I/O directly.
func Resolve(ctx context.Context, pool *ioworker.Pool, filePattern *regexp.Regexp, fromMs uint64) ([]string, error) {
	dir := parentDir(filePattern.String())
	full, err := regexp.Compile(`^(?:` + filePattern.String() + `)$`)
	if err != nil {
		return nil, err
	}

	result := <-ioworker.Submit(pool, func() ([]os.DirEntry, error) {
		return os.ReadDir(dir)
	})
	if result.Err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", apperr.ErrFailedToReadSource, dir, result.Err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var matches []match
	for _, entry := range result.Value {
		path := filepath.Join(dir, entry.Name())
		groups := full.FindStringSubmatch(path)
		if groups == nil {
			continue
		}
		if entry.IsDir() {
			return nil, fmt.Errorf("%w: %s is a directory", apperr.ErrFailedToReadSource, path)
		}

		rotation := 0
		if idx := indexOf(filePattern.SubexpNames(), "rotation"); idx > 0 && groups[idx] != "" {
			if r, err := strconv.Atoi(groups[idx]); err == nil {
				rotation = r
			}
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		modMs := info.ModTime().UnixMilli()
		if fromMs > 0 && modMs < int64(fromMs) {
			continue
		}

		matches = append(matches, match{path: path, rotation: rotation, modMs: modMs})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].rotation != matches[j].rotation {
			return matches[i].rotation > matches[j].rotation
		}
		return matches[i].modMs < matches[j].modMs
	})

	paths := make([]string, len(matches))
	for i, m := range matches {
		paths[i] = m.path
	}
	return paths, nil
}

// parentDir extracts the directory prefix of a regex's source text: the
// text up to the last path separator, taken verbatim. Regex escapes or
// metacharacters in that part are not interpreted, so the result names a
// real directory only when the pattern's directory part is plain literal
// text.
func parentDir(pattern string) string {
	idx := strings.LastIndex(pattern, "/")
	if idx < 0 {
		return "."
	}
	return pattern[:idx]
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

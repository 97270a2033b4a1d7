// Package config loads the YAML source registry file into compiled
// source.Source values.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bascanada/tentacle/pkg/ioworker"
	"github.com/bascanada/tentacle/pkg/pattern"
	"github.com/bascanada/tentacle/pkg/source"
	"github.com/bascanada/tentacle/pkg/ty"
)

// Sentinel errors for fatal startup configuration failures, matched with
// errors.Is by callers deciding how to report and exit.
var (
	ErrConfigParse     = errors.New("config: could not parse registry file")
	ErrDuplicateID     = errors.New("config: duplicate source id")
	ErrUnknownType     = errors.New("config: unknown source type")
	ErrInvalidPattern  = errors.New("config: invalid pattern")
	ErrInvalidTimezone = errors.New("config: invalid timezone")
	ErrMissingField    = errors.New("config: missing required field")
)

type sourceSpec struct {
	ID              string      `yaml:"id"`
	Type            string      `yaml:"type"`
	FilePattern     string      `yaml:"file_pattern"`
	LinePattern     string      `yaml:"line_pattern"`
	DatetimePattern string      `yaml:"datetime_pattern"`
	Timezone        string      `yaml:"timezone"`
	Unit            string      `yaml:"unit"`
	MaxLineLen      ty.Opt[int] `yaml:"max_line_len"`
}

type registryFile struct {
	Sources []sourceSpec `yaml:"sources"`
}

// Load reads path, validates every entry, and returns the compiled sources
// in file order. Any single invalid entry fails the whole load.
func Load(path string, pool *ioworker.Pool, logger *slog.Logger) ([]source.Source, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	var doc registryFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	seen := make(map[string]struct{}, len(doc.Sources))
	sources := make([]source.Source, 0, len(doc.Sources))

	// Many entries in a registry share the same line_pattern/datetime_pattern/
	// timezone triple (e.g. one journal unit per service, all emitting the
	// same format). patternCache compiles each distinct triple once.
	patternCache := make(ty.LazyMap[string, pattern.LinePattern])

	for _, spec := range doc.Sources {
		if spec.ID == "" {
			return nil, fmt.Errorf("%w: source missing id", ErrMissingField)
		}
		if _, dup := seen[spec.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, spec.ID)
		}
		seen[spec.ID] = struct{}{}

		if spec.LinePattern == "" {
			return nil, fmt.Errorf("%w: %s: line_pattern", ErrMissingField, spec.ID)
		}
		if spec.DatetimePattern == "" {
			return nil, fmt.Errorf("%w: %s: datetime_pattern", ErrMissingField, spec.ID)
		}
		if spec.Timezone == "" {
			return nil, fmt.Errorf("%w: %s: timezone", ErrMissingField, spec.ID)
		}
		if _, err := regexp.Compile(spec.LinePattern); err != nil {
			return nil, fmt.Errorf("%w: %s: line_pattern: %v", ErrInvalidPattern, spec.ID, err)
		}
		if _, err := time.LoadLocation(spec.Timezone); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTimezone, spec.ID, err)
		}

		patternKey := spec.LinePattern + "\x00" + spec.DatetimePattern + "\x00" + spec.Timezone
		if _, cached := patternCache[patternKey]; !cached {
			patternCache[patternKey] = ty.GetLazy(func() (*pattern.LinePattern, error) {
				return pattern.Compile(spec.LinePattern, spec.DatetimePattern, spec.Timezone)
			})
		}
		linePattern, err := patternCache.Get(patternKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPattern, spec.ID, err)
		}

		switch spec.Type {
		case "file":
			if spec.FilePattern == "" {
				return nil, fmt.Errorf("%w: %s: file_pattern", ErrMissingField, spec.ID)
			}
			filePattern, err := regexp.Compile(spec.FilePattern)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: file_pattern: %v", ErrInvalidPattern, spec.ID, err)
			}
			maxLineLen := 0
			if spec.MaxLineLen.Set && spec.MaxLineLen.Valid {
				maxLineLen = spec.MaxLineLen.Value
			}
			sources = append(sources, source.NewFile(spec.ID, filePattern, linePattern, maxLineLen, pool, logger))
		case "journal":
			if spec.Unit == "" {
				return nil, fmt.Errorf("%w: %s: unit", ErrMissingField, spec.ID)
			}
			sources = append(sources, source.NewJournal(spec.ID, spec.Unit, linePattern))
		default:
			return nil, fmt.Errorf("%w: %s: %s", ErrUnknownType, spec.ID, spec.Type)
		}
	}

	return sources, nil
}

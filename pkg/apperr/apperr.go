// Package apperr declares the sentinel errors that cross the core
// boundary, matched with errors.Is the way the teacher's config package
// matches ErrConfigParse / ErrNoContexts.
package apperr

import "errors"

var (
	// ErrSourceNotFound means a requested source id is not in the registry.
	ErrSourceNotFound = errors.New("source not found")

	// ErrFailedToReadSource means a source's backing directory could not
	// be listed, or an expected file entry is a directory.
	ErrFailedToReadSource = errors.New("failed to read source")
)

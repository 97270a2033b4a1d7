package source

import (
	"fmt"
	"sort"

	"github.com/bascanada/tentacle/pkg/apperr"
)

// Registry is the immutable mapping from source id to Source, built once
// at startup and safe to share across concurrent requests without
// synchronization.
type Registry struct {
	byID map[string]Source
}

// NewRegistry builds a Registry from sources. It fails if any two sources
// share an id.
func NewRegistry(sources []Source) (*Registry, error) {
	byID := make(map[string]Source, len(sources))
	for _, s := range sources {
		if _, exists := byID[s.ID()]; exists {
			return nil, fmt.Errorf("duplicate source id %q", s.ID())
		}
		byID[s.ID()] = s
	}
	return &Registry{byID: byID}, nil
}

// Get looks up a source by id.
func (r *Registry) Get(id string) (Source, error) {
	s, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperr.ErrSourceNotFound, id)
	}
	return s, nil
}

// List returns every source's descriptor, sorted by id for a stable
// listing response.
func (r *Registry) List() []Descriptor {
	descriptors := make([]Descriptor, 0, len(r.byID))
	for _, s := range r.byID {
		descriptors = append(descriptors, s.Describe())
	}
	sort.Slice(descriptors, func(i, j int) bool { return descriptors[i].ID < descriptors[j].ID })
	return descriptors
}

package source

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bascanada/tentacle/pkg/apperr"
	"github.com/bascanada/tentacle/pkg/pattern"
	"github.com/bascanada/tentacle/pkg/querycontext"
	"github.com/bascanada/tentacle/pkg/stream"
)

func testLinePattern(t *testing.T) *pattern.LinePattern {
	t.Helper()
	p, err := pattern.Compile(`^(?P<message>.*)$`, "2006-01-02 15:04:05", "UTC")
	require.NoError(t, err)
	return p
}

func TestRegistry_GetAndList(t *testing.T) {
	app := NewJournal("app", "app.service", testLinePattern(t))
	worker := NewJournal("worker", "worker.service", testLinePattern(t))

	reg, err := NewRegistry([]Source{app, worker})
	require.NoError(t, err)

	got, err := reg.Get("app")
	require.NoError(t, err)
	require.Equal(t, "app", got.ID())

	_, err = reg.Get("missing")
	require.ErrorIs(t, err, apperr.ErrSourceNotFound)

	list := reg.List()
	require.Len(t, list, 2)
	require.Equal(t, "app", list[0].ID)
	require.Equal(t, "worker", list[1].ID)
}

func TestRegistry_RejectsDuplicateIDs(t *testing.T) {
	a := NewJournal("dup", "a.service", testLinePattern(t))
	b := NewJournal("dup", "b.service", testLinePattern(t))

	_, err := NewRegistry([]Source{a, b})
	require.Error(t, err)
}

func TestJournal_OpenNotImplemented(t *testing.T) {
	j := NewJournal("worker", "worker.service", testLinePattern(t))
	qc := querycontext.New(0, nil, false)

	_, err := j.Open(context.Background(), qc)
	require.True(t, errors.Is(err, stream.ErrNotImplemented))
}

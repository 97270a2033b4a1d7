package encode

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bascanada/tentacle/pkg/pattern"
	"github.com/bascanada/tentacle/pkg/stream"
)

func TestEncoder_TextMode(t *testing.T) {
	var buf bytes.Buffer
	e := New(&buf, ModeText)

	require.NoError(t, e.Encode(stream.Entry{OriginalLine: "2019-01-01 10:00:01 DEBUG hi"}))
	require.Equal(t, "2019-01-01 10:00:01 DEBUG hi\n", buf.String())
}

func TestEncoder_JSONMode_ForwardFillsZeroTimestamp(t *testing.T) {
	var buf bytes.Buffer
	e := New(&buf, ModeJSON)

	level := "INFO"
	require.NoError(t, e.Encode(stream.Entry{
		OriginalLine: "first",
		Parsed:       pattern.ParsedLine{Timestamp: 1000, Loglevel: &level, Message: "first"},
	}))
	require.NoError(t, e.Encode(stream.Entry{
		OriginalLine: "second, unparseable",
		Parsed:       pattern.ParsedLine{Timestamp: 0, Message: "Failed to parse: second, unparseable"},
	}))

	lines := bytes.Split(bytes.TrimRight(buf.Bytes(), "\n"), []byte("\n"))
	require.Len(t, lines, 2)

	var first, second jsonRecord
	require.NoError(t, json.Unmarshal(lines[0], &first))
	require.NoError(t, json.Unmarshal(lines[1], &second))

	require.Equal(t, uint64(1000), first.Timestamp)
	require.Equal(t, uint64(1000), second.Timestamp)
	require.Nil(t, second.Loglevel)
}

func TestMode_ContentType(t *testing.T) {
	require.Equal(t, "text/plain", ModeText.ContentType())
	require.Equal(t, "application/json", ModeJSON.ContentType())
}

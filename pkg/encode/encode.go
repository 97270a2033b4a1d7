// Package encode serializes merged stream entries into the response body,
// in text or newline-delimited JSON form.
package encode

import (
	"encoding/json"
	"io"

	"github.com/bascanada/tentacle/pkg/stream"
)

// Mode selects the wire encoding of each entry.
type Mode int

const (
	ModeText Mode = iota
	ModeJSON
)

// ContentType returns the MIME type for mode.
func (m Mode) ContentType() string {
	if m == ModeJSON {
		return "application/json"
	}
	return "text/plain"
}

// jsonRecord is the newline-delimited JSON shape of one entry.
type jsonRecord struct {
	Timestamp uint64  `json:"timestamp"`
	Loglevel  *string `json:"loglevel"`
	Message   string  `json:"message"`
}

// Encoder writes a sequence of entries to a single io.Writer, preserving
// the order it receives them in and forward-filling unparseable (zero)
// timestamps in JSON mode.
type Encoder struct {
	w      io.Writer
	mode   Mode
	lastTS uint64
}

// New builds an Encoder writing to w in mode.
func New(w io.Writer, mode Mode) *Encoder {
	return &Encoder{w: w, mode: mode}
}

// Encode writes one frame for entry.
func (e *Encoder) Encode(entry stream.Entry) error {
	if e.mode == ModeJSON {
		return e.encodeJSON(entry)
	}
	return e.encodeText(entry)
}

func (e *Encoder) encodeText(entry stream.Entry) error {
	_, err := e.w.Write([]byte(entry.OriginalLine + "\n"))
	return err
}

func (e *Encoder) encodeJSON(entry stream.Entry) error {
	ts := entry.Parsed.Timestamp
	if ts == 0 {
		ts = e.lastTS
	} else {
		e.lastTS = ts
	}

	record := jsonRecord{Timestamp: ts, Loglevel: entry.Parsed.Loglevel, Message: entry.Parsed.Message}
	b, err := json.Marshal(record)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = e.w.Write(b)
	return err
}

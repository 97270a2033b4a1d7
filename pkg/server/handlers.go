package server

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/bascanada/tentacle/pkg/encode"
	"github.com/bascanada/tentacle/pkg/merge"
	"github.com/bascanada/tentacle/pkg/querycontext"
	"github.com/bascanada/tentacle/pkg/stream"
)

// healthHandler always answers with an empty 200.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// listSourcesHandler returns every registered source's descriptor.
func (s *Server) listSourcesHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.registry.List())
}

func (s *Server) openapiHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(s.openapiSpec)
}

// getContentHandler streams the merged, encoded content of one or more
// sources. No byte is written before every requested source has been
// looked up and opened, so a SourceNotFound or FailedToReadSource failure
// is reported cleanly instead of interrupting an in-progress stream.
func (s *Server) getContentHandler(w http.ResponseWriter, r *http.Request) {
	idsParam := r.URL.Query().Get("ids")
	if idsParam == "" {
		s.writeError(w, http.StatusBadRequest, ErrCodeValidationError, "ids query parameter is required")
		return
	}
	ids := strings.Split(idsParam, ",")

	mode, ok := negotiateMode(r.Header.Get("Accept"))
	if !ok {
		s.writeError(w, http.StatusNotAcceptable, ErrCodeNotAcceptable, "unsupported accept header")
		return
	}

	fromMs := uint64(0)
	if v := r.URL.Query().Get("from_ms"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, ErrCodeValidationError, "from_ms must be a non-negative integer")
			return
		}
		fromMs = parsed
	}

	var levels []string
	if v := r.URL.Query().Get("loglevels"); v != "" {
		for _, lvl := range strings.Split(v, ",") {
			levels = append(levels, strings.ToUpper(strings.TrimSpace(lvl)))
		}
	}

	watch := false
	if v := r.URL.Query().Get("watch"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, ErrCodeValidationError, "watch must be a boolean")
			return
		}
		watch = parsed
	}

	qc := querycontext.New(fromMs, levels, watch)

	ctx := r.Context()
	streams := make([]stream.Stream, 0, len(ids))
	for _, id := range ids {
		src, err := s.registry.Get(strings.TrimSpace(id))
		if err != nil {
			s.writeSourceErr(w, err)
			return
		}
		st, err := src.Open(ctx, qc)
		if err != nil {
			s.writeSourceErr(w, err)
			return
		}
		streams = append(streams, st)
	}

	m := merge.New(streams, s.logger)
	defer m.Close()

	w.Header().Set("Content-Type", mode.ContentType())
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	enc := encode.New(w, mode)

	for {
		entry, err := m.Next(ctx)
		if err == io.EOF {
			return
		}
		if err != nil {
			s.logger.Warn("content stream ended early", "error", err)
			return
		}
		if err := enc.Encode(entry); err != nil {
			s.logger.Warn("failed writing response frame", "error", err)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// negotiateMode maps an Accept header to an encode.Mode. "*/*" and an
// empty header mean text/plain. Anything not recognized is unacceptable.
func negotiateMode(accept string) (encode.Mode, bool) {
	if accept == "" {
		return encode.ModeText, true
	}
	for _, part := range strings.Split(accept, ",") {
		media := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		switch media {
		case "*/*", "text/plain":
			return encode.ModeText, true
		case "application/json":
			return encode.ModeJSON, true
		}
	}
	return encode.ModeText, false
}

package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/jx"
	"go.uber.org/zap"
)

// respondJSON writes an already-encoded JSON body.
func (h *Handler) respondJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		h.lg.Debug("Write response failed", zap.Error(err))
	}
}

// respondError writes the standard error envelope: {"code":N,"message":"..."}.
func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("code")
	e.Int(status)
	e.FieldStart("message")
	e.Str(message)
	e.ObjEnd()
	h.respondJSON(w, status, e.Bytes())
}

// pathInt extracts a positive integer path value; ok is false when the value
// is malformed or non-positive.
func pathInt(r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(r.PathValue(name))
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// queryInt parses an optional integer query parameter, returning def when
// absent. ok is false only when a present value is malformed.
func queryInt(r *http.Request, name string, def int) (v int, ok bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

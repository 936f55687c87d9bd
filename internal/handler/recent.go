package handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

// RecordView serves POST /api/product/{productID}/view, registering a product
// detail view for the recently-viewed list.
func (h *Handler) RecordView(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(r, "productID")
	if !ok {
		h.respondError(w, http.StatusBadRequest, "product id must be a positive integer")
		return
	}
	if _, err := h.catalog.ByID(id); err != nil {
		h.respondError(w, http.StatusNotFound, "product not found")
		return
	}

	s := h.session(w, r)
	s.Recent.RecordView(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

// ListRecent serves GET /api/recent: the session's recently viewed products,
// most recent first, resolved against the current catalog. IDs that no
// longer resolve (removed by a catalog reload) are skipped rather than
// surfaced as errors.
func (h *Handler) ListRecent(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("items")
	e.ArrStart()
	for _, id := range s.Recent.Recent() {
		p, err := h.catalog.ByID(id)
		if err != nil {
			continue
		}
		h.encodeProduct(&e, p)
	}
	e.ArrEnd()
	e.ObjEnd()

	h.respondJSON(w, http.StatusOK, e.Bytes())
}

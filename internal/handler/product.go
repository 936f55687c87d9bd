package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/techgear-labs/storefront/internal/browse"
	"github.com/techgear-labs/storefront/internal/catalog"
)

// defaultViewportWidth applies when a listing request omits the viewport
// parameter; it lands in the widest breakpoint bucket.
const defaultViewportWidth = 1440

// imageVariants are the responsive renditions derived from a product's image
// key, smallest first.
var imageVariants = []string{"thumbnail", "mobile", "tablet", "desktop"}

// ListProducts serves GET /api/product: the catalog filtered by category and
// text query, paginated by the viewport-derived page size.
//
// Query parameters: category (default "all"), q (substring match on name),
// page (default 1, clamped), viewport (layout width in px).
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	category := catalog.CategoryAll
	if raw := q.Get("category"); raw != "" {
		category = catalog.Category(raw)
		if category != catalog.CategoryAll && !category.Valid() {
			h.respondError(w, http.StatusBadRequest, "unknown category")
			return
		}
	}

	page, ok := queryInt(r, "page", 1)
	if !ok {
		h.respondError(w, http.StatusBadRequest, "page must be an integer")
		return
	}
	width, ok := queryInt(r, "viewport", defaultViewportWidth)
	if !ok {
		h.respondError(w, http.StatusBadRequest, "viewport must be an integer")
		return
	}

	filtered := catalog.Filter(h.catalog.All(), category, q.Get("q"))
	pageSize := h.breakpoints.PageSizeFor(width)
	result := browse.Paginate(filtered, page, pageSize)

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("items")
	e.ArrStart()
	for _, p := range result.Items {
		h.encodeProduct(&e, p)
	}
	e.ArrEnd()
	e.FieldStart("page")
	e.Int(result.CurrentPage)
	e.FieldStart("totalPages")
	e.Int(result.TotalPages)
	e.FieldStart("totalItems")
	e.Int(result.TotalItems)
	e.FieldStart("pageSize")
	e.Int(pageSize)
	e.ObjEnd()

	h.respondJSON(w, http.StatusOK, e.Bytes())
}

// GetProduct serves GET /api/product/{productID}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(r, "productID")
	if !ok {
		h.respondError(w, http.StatusBadRequest, "product id must be a positive integer")
		return
	}

	p, err := h.catalog.ByID(id)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "product not found")
		return
	}

	var e jx.Encoder
	h.encodeProduct(&e, p)
	h.respondJSON(w, http.StatusOK, e.Bytes())
}

func (h *Handler) encodeProduct(e *jx.Encoder, p catalog.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("category")
	e.Str(string(p.Category))
	e.FieldStart("price")
	e.Num(jx.Num(p.Price.String()))

	e.FieldStart("image")
	e.ObjStart()
	for _, variant := range imageVariants {
		e.FieldStart(variant)
		e.Str(h.imageURL(p.ImageKey, variant))
	}
	e.ObjEnd()

	if len(p.Specs) > 0 {
		e.FieldStart("specs")
		e.ArrStart()
		for _, s := range p.Specs {
			e.ObjStart()
			e.FieldStart("label")
			e.Str(s.Label)
			e.FieldStart("value")
			e.Str(s.Value)
			e.ObjEnd()
		}
		e.ArrEnd()
	}
	if p.Badge != "" {
		e.FieldStart("badge")
		e.Str(string(p.Badge))
	}
	e.ObjEnd()
}

// imageURL derives one responsive rendition URL from an image key, e.g.
// "nighthawk-x2-pro" -> "<base>/images/nighthawk-x2-pro-thumbnail.webp".
func (h *Handler) imageURL(key, variant string) string {
	return h.imageBaseURL + "/images/" + key + "-" + variant + ".webp"
}

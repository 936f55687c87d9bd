package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/techgear-labs/storefront/internal/cart"
)

// GetCart serves GET /api/cart: the session's lines, grand total, and unit
// count.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	h.respondCart(w, s.Cart)
}

// AddCartItem serves POST /api/cart/items with body {"productId":N}, adding
// one unit of the product and returning the updated cart.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	productID, err := decodeAddRequest(r.Body)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.catalog.ByID(productID); err != nil {
		h.respondError(w, http.StatusUnprocessableEntity, "product not found")
		return
	}

	s := h.session(w, r)
	s.Cart.Add(r.Context(), productID)
	h.respondCart(w, s.Cart)
}

// ChangeCartItem serves PATCH /api/cart/items/{productID} with body
// {"delta":N}. A delta driving the quantity to zero removes the line; a
// delta for a product not in the cart is a no-op.
func (h *Handler) ChangeCartItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathInt(r, "productID")
	if !ok {
		h.respondError(w, http.StatusBadRequest, "product id must be a positive integer")
		return
	}
	delta, err := decodeChangeRequest(r.Body)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s := h.session(w, r)
	s.Cart.ChangeQuantity(r.Context(), productID, delta)
	h.respondCart(w, s.Cart)
}

// RemoveCartItem serves DELETE /api/cart/items/{productID}.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathInt(r, "productID")
	if !ok {
		h.respondError(w, http.StatusBadRequest, "product id must be a positive integer")
		return
	}

	s := h.session(w, r)
	s.Cart.Remove(r.Context(), productID)
	h.respondCart(w, s.Cart)
}

// ClearCart serves DELETE /api/cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	s.Cart.Clear(r.Context())
	h.respondCart(w, s.Cart)
}

// respondCart writes the cart envelope:
// {"items":[{"id","name","price","img","qty"}...],"total":N,"itemCount":N}.
func (h *Handler) respondCart(w http.ResponseWriter, c *cart.Store) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("items")
	e.ArrStart()
	for _, l := range c.Lines() {
		e.ObjStart()
		e.FieldStart("id")
		e.Int(l.ProductID)
		e.FieldStart("name")
		e.Str(l.Name)
		e.FieldStart("price")
		e.Num(jx.Num(l.Price.String()))
		e.FieldStart("img")
		e.Str(h.imageURL(l.ImageKey, "thumbnail"))
		e.FieldStart("qty")
		e.Int(l.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("total")
	e.Num(jx.Num(c.Total().String()))
	e.FieldStart("itemCount")
	e.Int(c.ItemCount())
	e.ObjEnd()

	h.respondJSON(w, http.StatusOK, e.Bytes())
}

func decodeAddRequest(body io.Reader) (int, error) {
	productID := 0
	seen := false

	d := jx.Decode(body, 512)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "productId" {
			return d.Skip()
		}
		v, err := d.Int()
		if err != nil {
			return errors.Wrap(err, "productId")
		}
		productID = v
		seen = true
		return nil
	}); err != nil {
		return 0, errors.Wrap(err, "decode body")
	}

	if !seen || productID <= 0 {
		return 0, errors.New("productId must be a positive integer")
	}
	return productID, nil
}

func decodeChangeRequest(body io.Reader) (int, error) {
	delta := 0
	seen := false

	d := jx.Decode(body, 512)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "delta" {
			return d.Skip()
		}
		v, err := d.Int()
		if err != nil {
			return errors.Wrap(err, "delta")
		}
		delta = v
		seen = true
		return nil
	}); err != nil {
		return 0, errors.Wrap(err, "decode body")
	}

	if !seen {
		return 0, errors.New("delta is required")
	}
	return delta, nil
}

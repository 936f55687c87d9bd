// Package handler exposes the storefront over HTTP: catalog browsing with
// filtering and viewport-aware pagination, the per-session cart, and the
// recently-viewed list.
package handler

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/techgear-labs/storefront/internal/browse"
	"github.com/techgear-labs/storefront/internal/catalog"
	"github.com/techgear-labs/storefront/internal/session"
)

const (
	sessionCookie = "tg_session"
	sessionHeader = "X-Session-ID"

	sessionCookieMaxAge = 180 * 24 * time.Hour
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to derived image paths in product responses.
	// When empty, image paths are returned relative.
	ImageBaseURL string
	// Breakpoints maps viewport widths to listing page sizes. Nil selects
	// browse.DefaultBreakpoints.
	Breakpoints browse.Breakpoints
}

// Handler serves the storefront API, delegating to the catalog store and the
// per-session cart and recently-viewed state.
type Handler struct {
	catalog      *catalog.Store
	sessions     *session.Manager
	breakpoints  browse.Breakpoints
	imageBaseURL string
	lg           *zap.Logger
}

// New constructs a Handler with the required dependencies.
func New(cfg Config, cat *catalog.Store, sessions *session.Manager, lg *zap.Logger) *Handler {
	bps := cfg.Breakpoints
	if bps == nil {
		bps = browse.DefaultBreakpoints
	}
	return &Handler{
		catalog:      cat,
		sessions:     sessions,
		breakpoints:  bps,
		imageBaseURL: cfg.ImageBaseURL,
		lg:           lg.Named("handler"),
	}
}

// Routes registers every API route on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/product", h.ListProducts)
	mux.HandleFunc("GET /api/product/{productID}", h.GetProduct)
	mux.HandleFunc("POST /api/product/{productID}/view", h.RecordView)
	mux.HandleFunc("GET /api/recent", h.ListRecent)

	mux.HandleFunc("GET /api/cart", h.GetCart)
	mux.HandleFunc("POST /api/cart/items", h.AddCartItem)
	mux.HandleFunc("PATCH /api/cart/items/{productID}", h.ChangeCartItem)
	mux.HandleFunc("DELETE /api/cart/items/{productID}", h.RemoveCartItem)
	mux.HandleFunc("DELETE /api/cart", h.ClearCart)
}

// session resolves the request's session from the tg_session cookie or the
// X-Session-ID header, minting a fresh identifier (and setting the cookie)
// when neither carries a valid one.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) *session.Session {
	id := ""
	if c, err := r.Cookie(sessionCookie); err == nil {
		id = c.Value
	}
	if id == "" {
		id = r.Header.Get(sessionHeader)
	}

	if !session.ValidID(id) {
		id = session.NewID()
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    id,
			Path:     "/",
			MaxAge:   int(sessionCookieMaxAge.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	return h.sessions.Get(r.Context(), id)
}

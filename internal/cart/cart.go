// Package cart implements the shopping cart: a persistent mapping of product
// to quantity with denormalized display snapshots, backed by a blob store.
package cart

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/techgear-labs/storefront/internal/catalog"
	"github.com/techgear-labs/storefront/pkg/blobstore"
)

// StorageKeyPrefix is the blob key namespace for carts; the session ID is
// appended to scope each client to its own cart.
const StorageKeyPrefix = "techgear_cart"

// Line is one cart entry. Name, Price, and ImageKey are snapshots captured
// at add time, so a historical cart stays displayable even if the catalog
// changes in a later session.
type Line struct {
	ProductID int
	Name      string
	Price     decimal.Decimal
	ImageKey  string
	Quantity  int
}

// Catalog resolves product IDs at add time. Only products present in the
// catalog can enter the cart.
type Catalog interface {
	ByID(id int) (catalog.Product, error)
}

// Store owns one client's cart. At most one line exists per product, lines
// keep insertion order, and a persisted quantity is always >= 1: a line
// whose quantity would drop to zero is removed instead.
//
// Mutating operations never return errors. Invalid input is logged and
// ignored, and a failed persistence write is logged while the in-memory
// state stays authoritative for the rest of the session. UI-driven
// interactions must never hard-fail.
type Store struct {
	key     string
	catalog Catalog
	blobs   blobstore.Store
	lg      *zap.Logger

	mu    sync.Mutex
	lines []Line
}

// NewStore creates a cart bound to the given storage key and loads any
// previously persisted lines. A missing or corrupted blob resets to an
// empty cart rather than failing.
func NewStore(ctx context.Context, key string, cat Catalog, blobs blobstore.Store, lg *zap.Logger) *Store {
	s := &Store{
		key:     key,
		catalog: cat,
		blobs:   blobs,
		lg:      lg.Named("cart"),
	}
	s.load(ctx)
	return s
}

// Add puts one unit of the product into the cart: a new line with quantity 1
// on first add, an increment on every add after that. Unknown or
// non-positive product IDs are rejected with a logged diagnostic and no
// state change.
func (s *Store) Add(ctx context.Context, productID int) {
	if productID <= 0 {
		s.lg.Error("Invalid product id, must be a positive integer", zap.Int("id", productID))
		return
	}

	p, err := s.catalog.ByID(productID)
	if err != nil {
		s.lg.Error("Product not found, ignoring add", zap.Int("id", productID), zap.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.index(productID); i >= 0 {
		s.lines[i].Quantity++
	} else {
		s.lines = append(s.lines, Line{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			ImageKey:  p.ImageKey,
			Quantity:  1,
		})
	}
	s.persist(ctx)
}

// ChangeQuantity adds delta (typically +1 or -1) to the product's line. When
// the resulting quantity is zero or below, the line is removed entirely; a
// non-positive quantity is never persisted. Absent lines are a no-op.
func (s *Store) ChangeQuantity(ctx context.Context, productID, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(productID)
	if i < 0 {
		return
	}

	s.lines[i].Quantity += delta
	if s.lines[i].Quantity <= 0 {
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
	}
	s.persist(ctx)
}

// Remove deletes the product's line regardless of quantity. Absent lines are
// a no-op.
func (s *Store) Remove(ctx context.Context, productID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(productID)
	if i < 0 {
		return
	}

	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	s.persist(ctx)
}

// Clear removes every line in one persisted write. An already-empty cart is
// a no-op.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.lines) == 0 {
		return
	}
	s.lines = nil
	s.persist(ctx)
}

// Lines returns the cart lines in insertion order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// Total returns the grand total: sum over lines of price times quantity.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// ItemCount returns the total number of units across all lines.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, l := range s.lines {
		count += l.Quantity
	}
	return count
}

// index returns the position of the product's line, or -1. Caller holds mu.
func (s *Store) index(productID int) int {
	for i, l := range s.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

// persist serializes the full line list to the blob store. Caller holds mu.
func (s *Store) persist(ctx context.Context) {
	data, err := encodeLines(s.lines)
	if err != nil {
		s.lg.Error("Encode cart failed, in-memory state kept", zap.String("key", s.key), zap.Error(err))
		return
	}
	if err := s.blobs.Set(ctx, s.key, data); err != nil {
		s.lg.Error("Persist cart failed, in-memory state kept", zap.String("key", s.key), zap.Error(err))
	}
}

// load restores lines from the blob store, degrading to an empty cart on
// any failure.
func (s *Store) load(ctx context.Context) {
	data, err := s.blobs.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, blobstore.ErrNotFound) {
			s.lg.Warn("Load cart failed, starting empty", zap.String("key", s.key), zap.Error(err))
		}
		return
	}

	lines, err := decodeLines(data)
	if err != nil {
		s.lg.Warn("Stored cart is corrupted, starting empty", zap.String("key", s.key), zap.Error(err))
		return
	}
	s.lines = lines
}

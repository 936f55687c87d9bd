// Package catalog holds the product catalog: the fixed set of sellable
// products known to the system, loaded once at startup and treated as the
// single source of truth for product fields.
package catalog

import (
	"sync"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Category enumerates the product categories sold by the store.
type Category string

const (
	CategoryMouse    Category = "mouse"
	CategoryKeyboard Category = "keyboard"
	CategoryAudio    Category = "audio"

	// CategoryAll is the pseudo-category that disables category filtering.
	// It is never assigned to a product.
	CategoryAll Category = "all"
)

// Valid reports whether c is an assignable product category.
func (c Category) Valid() bool {
	switch c {
	case CategoryMouse, CategoryKeyboard, CategoryAudio:
		return true
	}
	return false
}

// Badge is an optional marketing badge shown on a product card.
type Badge string

const (
	BadgeBestseller Badge = "BESTSELLER"
	BadgeNew        Badge = "NEW"
	BadgeSale       Badge = "SALE"
)

// Spec is one technical specification line. Specs are an ordered mapping, so
// they are kept as a slice of pairs rather than a map.
type Spec struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Product is an immutable catalog item.
type Product struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Category Category        `json:"category"`
	Price    decimal.Decimal `json:"price"`
	// ImageKey is the base filename from which responsive image variants
	// are derived (e.g. "nighthawk-x2-pro" -> "nighthawk-x2-pro-600.jpg").
	ImageKey string `json:"img"`
	Specs    []Spec `json:"specs,omitempty"`
	Badge    Badge  `json:"badge,omitempty"`
}

// snapshot is one immutable catalog generation. Replace swaps the whole
// snapshot so readers never observe a half-updated catalog.
type snapshot struct {
	products []Product
	byID     map[int]Product
}

// Store provides ordered and keyed read access to the catalog. It has no
// mutation operations beyond Replace, which atomically installs a new
// product list (used by hot reload).
type Store struct {
	mu   sync.RWMutex
	snap *snapshot
}

// NewStore builds a Store from the given products, preserving their order.
// It fails if any product is invalid or an ID repeats.
func NewStore(products []Product) (*Store, error) {
	snap, err := buildSnapshot(products)
	if err != nil {
		return nil, err
	}
	return &Store{snap: snap}, nil
}

// All returns every product in stable declaration order.
func (s *Store) All() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.products
}

// ByID returns the product with the given ID, or ErrNotFound. Callers must
// check the error before using the product.
func (s *Store) ByID(id int) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.snap.byID[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

// Len returns the number of products in the catalog.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snap.products)
}

// Replace validates products and atomically swaps them in as the new
// catalog. On error the previous catalog stays in place.
func (s *Store) Replace(products []Product) error {
	snap, err := buildSnapshot(products)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
	return nil
}

func buildSnapshot(products []Product) (*snapshot, error) {
	out := make([]Product, len(products))
	copy(out, products)

	byID := make(map[int]Product, len(out))
	for _, p := range out {
		if err := validate(p); err != nil {
			return nil, err
		}
		if _, dup := byID[p.ID]; dup {
			return nil, errors.Errorf("duplicate product id %d", p.ID)
		}
		byID[p.ID] = p
	}

	return &snapshot{products: out, byID: byID}, nil
}

func validate(p Product) error {
	if p.ID <= 0 {
		return errors.Errorf("product id %d: must be a positive integer", p.ID)
	}
	if p.Name == "" {
		return errors.Errorf("product %d: name required", p.ID)
	}
	if !p.Category.Valid() {
		return errors.Errorf("product %d: unknown category %q", p.ID, p.Category)
	}
	if !p.Price.IsPositive() {
		return errors.Errorf("product %d: price must be positive, got %s", p.ID, p.Price)
	}
	return nil
}

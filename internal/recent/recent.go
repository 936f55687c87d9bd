// Package recent tracks the products a client viewed most recently: a
// bounded, most-recent-first list of product IDs persisted to the blob
// store.
package recent

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.uber.org/zap"

	"github.com/techgear-labs/storefront/pkg/blobstore"
)

// StorageKeyPrefix is the blob key namespace for recently-viewed lists.
const StorageKeyPrefix = "tg_recently_viewed"

// MaxEntries caps the list length.
const MaxEntries = 6

// Tracker owns one client's recently-viewed list. Re-viewing a listed
// product moves it to the front without growing the list; the list never
// exceeds MaxEntries. Persistence follows the cart's policy: failures are
// logged, never raised, and a bad stored blob resets to empty.
type Tracker struct {
	key   string
	blobs blobstore.Store
	lg    *zap.Logger

	mu  sync.Mutex
	ids []int
}

// NewTracker creates a tracker bound to the given storage key and loads any
// previously persisted list.
func NewTracker(ctx context.Context, key string, blobs blobstore.Store, lg *zap.Logger) *Tracker {
	t := &Tracker{
		key:   key,
		blobs: blobs,
		lg:    lg.Named("recent"),
	}
	t.load(ctx)
	return t
}

// RecordView moves productID to the front of the list, deduplicating any
// existing occurrence, truncates to MaxEntries, and persists.
func (t *Tracker) RecordView(ctx context.Context, productID int) {
	if productID <= 0 {
		t.lg.Error("Invalid product id, must be a positive integer", zap.Int("id", productID))
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	next := make([]int, 0, len(t.ids)+1)
	next = append(next, productID)
	for _, id := range t.ids {
		if id != productID {
			next = append(next, id)
		}
	}
	if len(next) > MaxEntries {
		next = next[:MaxEntries]
	}
	t.ids = next

	t.persist(ctx)
}

// Recent returns the viewed product IDs, most recent first.
func (t *Tracker) Recent() []int {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]int, len(t.ids))
	copy(out, t.ids)
	return out
}

func (t *Tracker) persist(ctx context.Context) {
	var e jx.Encoder
	e.ArrStart()
	for _, id := range t.ids {
		e.Int(id)
	}
	e.ArrEnd()

	if err := t.blobs.Set(ctx, t.key, e.Bytes()); err != nil {
		t.lg.Error("Persist recently viewed failed, in-memory state kept",
			zap.String("key", t.key), zap.Error(err))
	}
}

func (t *Tracker) load(ctx context.Context) {
	data, err := t.blobs.Get(ctx, t.key)
	if err != nil {
		if !errors.Is(err, blobstore.ErrNotFound) {
			t.lg.Warn("Load recently viewed failed, starting empty",
				zap.String("key", t.key), zap.Error(err))
		}
		return
	}

	var ids []int
	d := jx.DecodeBytes(data)
	if err := d.Arr(func(d *jx.Decoder) error {
		id, err := d.Int()
		if err != nil {
			return err
		}
		if id > 0 {
			ids = append(ids, id)
		}
		return nil
	}); err != nil {
		t.lg.Warn("Stored recently viewed list is corrupted, starting empty",
			zap.String("key", t.key), zap.Error(err))
		return
	}

	if len(ids) > MaxEntries {
		ids = ids[:MaxEntries]
	}
	t.ids = ids
}

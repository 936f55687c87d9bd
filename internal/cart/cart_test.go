package cart

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/techgear-labs/storefront/internal/catalog"
	"github.com/techgear-labs/storefront/pkg/blobstore"
)

// flakyStore wraps a memory store and can be told to fail writes.
type flakyStore struct {
	*blobstore.Memory
	failSet bool
	sets    int
}

func (f *flakyStore) Set(ctx context.Context, key string, value []byte) error {
	f.sets++
	if f.failSet {
		return errors.New("quota exceeded")
	}
	return f.Memory.Set(ctx, key, value)
}

func testCatalog(t *testing.T) *catalog.Store {
	t.Helper()

	s, err := catalog.NewStore([]catalog.Product{
		{ID: 1, Name: "NIGHTHAWK X2 PRO", Category: catalog.CategoryMouse, Price: decimal.NewFromInt(349), ImageKey: "nighthawk-x2-pro"},
		{ID: 2, Name: "MECHANIC K-75", Category: catalog.CategoryKeyboard, Price: decimal.NewFromInt(649), ImageKey: "mechanic-k-75"},
	})
	require.NoError(t, err)
	return s
}

func newTestStore(t *testing.T, blobs blobstore.Store) *Store {
	t.Helper()
	return NewStore(context.Background(), StorageKeyPrefix+":test", testCatalog(t), blobs, zaptest.NewLogger(t))
}

func TestAdd_CreatesLineWithSnapshot(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, blobstore.NewMemory())

	s.Add(ctx, 1)

	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 1, lines[0].ProductID)
	assert.Equal(t, "NIGHTHAWK X2 PRO", lines[0].Name)
	assert.Equal(t, "nighthawk-x2-pro", lines[0].ImageKey)
	assert.True(t, decimal.NewFromInt(349).Equal(lines[0].Price))
	assert.Equal(t, 1, lines[0].Quantity)
}

func TestAdd_RepeatedAddsIncrement(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, blobstore.NewMemory())

	for range 5 {
		s.Add(ctx, 1)
	}

	lines := s.Lines()
	require.Len(t, lines, 1, "N adds of the same product yield exactly one line")
	assert.Equal(t, 5, lines[0].Quantity)
	assert.Equal(t, 5, s.ItemCount())
}

func TestAdd_RejectsInvalidIDs(t *testing.T) {
	ctx := context.Background()
	blobs := &flakyStore{Memory: blobstore.NewMemory()}
	s := newTestStore(t, blobs)

	s.Add(ctx, 0)
	s.Add(ctx, -7)
	s.Add(ctx, 99) // not in catalog

	assert.Empty(t, s.Lines())
	assert.Zero(t, blobs.sets, "rejected adds must not persist")
}

func TestChangeQuantity_ZeroFloor(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, blobstore.NewMemory())

	s.Add(ctx, 1)
	s.ChangeQuantity(ctx, 1, -1)
	assert.Empty(t, s.Lines(), "quantity reaching zero removes the line")

	// A further decrement on the now-absent line is a no-op.
	s.ChangeQuantity(ctx, 1, -1)
	assert.Empty(t, s.Lines())
	assert.Equal(t, 0, s.ItemCount())
}

func TestChangeQuantity_AbsentLineIsNoop(t *testing.T) {
	ctx := context.Background()
	blobs := &flakyStore{Memory: blobstore.NewMemory()}
	s := newTestStore(t, blobs)

	s.ChangeQuantity(ctx, 2, 1)
	assert.Empty(t, s.Lines())
	assert.Zero(t, blobs.sets)
}

func TestChangeQuantity_Scenario(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, blobstore.NewMemory())

	s.Add(ctx, 1)
	s.Add(ctx, 1)
	s.ChangeQuantity(ctx, 1, -1)

	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 1, lines[0].ProductID)
	assert.Equal(t, 1, lines[0].Quantity)
	assert.True(t, decimal.NewFromInt(349).Equal(s.Total()))
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, blobstore.NewMemory())

	s.Add(ctx, 1)
	s.Add(ctx, 2)
	s.ChangeQuantity(ctx, 2, 2)

	s.Remove(ctx, 1)

	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].ProductID)

	// Removing an absent product is a no-op.
	s.Remove(ctx, 1)
	assert.Len(t, s.Lines(), 1)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	blobs := &flakyStore{Memory: blobstore.NewMemory()}
	s := newTestStore(t, blobs)

	// Clearing an empty cart writes nothing.
	s.Clear(ctx)
	assert.Zero(t, blobs.sets)

	s.Add(ctx, 1)
	s.Add(ctx, 2)
	setsBefore := blobs.sets

	s.Clear(ctx)
	assert.Empty(t, s.Lines())
	assert.Equal(t, setsBefore+1, blobs.sets, "clear persists in one write")
}

func TestTotalAndItemCount(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, blobstore.NewMemory())

	s.Add(ctx, 1) // 349
	s.Add(ctx, 2) // 649
	s.Add(ctx, 2) // 649

	assert.True(t, decimal.NewFromInt(349+649+649).Equal(s.Total()))
	assert.Equal(t, 3, s.ItemCount())
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	blobs := blobstore.NewMemory()
	cat := testCatalog(t)
	lg := zaptest.NewLogger(t)

	first := NewStore(ctx, "techgear_cart:rt", cat, blobs, lg)
	first.Add(ctx, 2)
	first.Add(ctx, 1)
	first.Add(ctx, 1)

	// A fresh instance on the same key sees identical lines: ids,
	// quantities, snapshot fields, and insertion order.
	second := NewStore(ctx, "techgear_cart:rt", cat, blobs, lg)
	assert.Equal(t, first.Lines(), second.Lines())
	assert.True(t, first.Total().Equal(second.Total()))
}

func TestLoad_CorruptBlobResetsEmpty(t *testing.T) {
	ctx := context.Background()
	blobs := blobstore.NewMemory()
	require.NoError(t, blobs.Set(ctx, "techgear_cart:bad", []byte("{corrupt")))

	s := NewStore(ctx, "techgear_cart:bad", testCatalog(t), blobs, zaptest.NewLogger(t))
	assert.Empty(t, s.Lines())

	// The store stays usable after the reset.
	s.Add(ctx, 1)
	assert.Len(t, s.Lines(), 1)
}

func TestLoad_DropsInvalidStoredLines(t *testing.T) {
	ctx := context.Background()
	blobs := blobstore.NewMemory()
	stored := `[{"id":1,"name":"A","price":349,"img":"a","qty":2},{"id":-5,"name":"B","price":1,"img":"b","qty":1},{"id":2,"name":"C","price":649,"img":"c","qty":0}]`
	require.NoError(t, blobs.Set(ctx, "techgear_cart:mixed", []byte(stored)))

	s := NewStore(ctx, "techgear_cart:mixed", testCatalog(t), blobs, zaptest.NewLogger(t))

	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 1, lines[0].ProductID)
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestPersist_WriteFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	blobs := &flakyStore{Memory: blobstore.NewMemory(), failSet: true}
	s := newTestStore(t, blobs)

	s.Add(ctx, 1)
	s.Add(ctx, 1)

	// Writes failed, but the in-memory cart is the source of truth.
	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestSnapshot_SurvivesCatalogChange(t *testing.T) {
	ctx := context.Background()
	blobs := blobstore.NewMemory()
	cat := testCatalog(t)
	lg := zaptest.NewLogger(t)

	s := NewStore(ctx, "techgear_cart:snap", cat, blobs, lg)
	s.Add(ctx, 1)

	// The catalog price changes after the add; the cart keeps its add-time
	// snapshot, both in memory and across a reload.
	require.NoError(t, cat.Replace([]catalog.Product{
		{ID: 1, Name: "NIGHTHAWK X2 PRO", Category: catalog.CategoryMouse, Price: decimal.NewFromInt(999), ImageKey: "nighthawk-x2-pro"},
	}))

	assert.True(t, decimal.NewFromInt(349).Equal(s.Lines()[0].Price))

	reloaded := NewStore(ctx, "techgear_cart:snap", cat, blobs, lg)
	assert.True(t, decimal.NewFromInt(349).Equal(reloaded.Lines()[0].Price))
}

func TestCodec_WireFormat(t *testing.T) {
	data, err := encodeLines([]Line{
		{ProductID: 1, Name: "NIGHTHAWK X2 PRO", Price: decimal.NewFromInt(349), ImageKey: "nighthawk-x2-pro", Quantity: 2},
	})
	require.NoError(t, err)

	assert.JSONEq(t,
		`[{"id":1,"name":"NIGHTHAWK X2 PRO","price":349,"img":"nighthawk-x2-pro","qty":2}]`,
		string(data),
	)
}

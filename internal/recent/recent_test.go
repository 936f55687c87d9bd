package recent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/techgear-labs/storefront/pkg/blobstore"
)

func newTracker(t *testing.T, blobs blobstore.Store) *Tracker {
	t.Helper()
	return NewTracker(context.Background(), StorageKeyPrefix+":test", blobs, zaptest.NewLogger(t))
}

func TestRecordView_MostRecentFirst(t *testing.T) {
	ctx := context.Background()
	tr := newTracker(t, blobstore.NewMemory())

	tr.RecordView(ctx, 1)
	tr.RecordView(ctx, 2)
	tr.RecordView(ctx, 3)

	assert.Equal(t, []int{3, 2, 1}, tr.Recent())
}

func TestRecordView_BoundAtSix(t *testing.T) {
	ctx := context.Background()
	tr := newTracker(t, blobstore.NewMemory())

	// Viewing 8 distinct products leaves exactly the 6 most recent.
	for id := 1; id <= 8; id++ {
		tr.RecordView(ctx, id)
	}

	assert.Equal(t, []int{8, 7, 6, 5, 4, 3}, tr.Recent())
}

func TestRecordView_ReviewMovesToFrontWithoutDuplicating(t *testing.T) {
	ctx := context.Background()
	tr := newTracker(t, blobstore.NewMemory())

	for id := 1; id <= 4; id++ {
		tr.RecordView(ctx, id)
	}
	require.Equal(t, []int{4, 3, 2, 1}, tr.Recent())

	tr.RecordView(ctx, 2)
	assert.Equal(t, []int{2, 4, 3, 1}, tr.Recent())
	assert.Len(t, tr.Recent(), 4, "re-view must not change list length")
}

func TestRecordView_RejectsInvalidID(t *testing.T) {
	ctx := context.Background()
	tr := newTracker(t, blobstore.NewMemory())

	tr.RecordView(ctx, 0)
	tr.RecordView(ctx, -3)

	assert.Empty(t, tr.Recent())
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	blobs := blobstore.NewMemory()
	lg := zaptest.NewLogger(t)

	first := NewTracker(ctx, "tg_recently_viewed:rt", blobs, lg)
	first.RecordView(ctx, 5)
	first.RecordView(ctx, 9)

	second := NewTracker(ctx, "tg_recently_viewed:rt", blobs, lg)
	assert.Equal(t, []int{9, 5}, second.Recent())
}

func TestLoad_CorruptBlobResetsEmpty(t *testing.T) {
	ctx := context.Background()
	blobs := blobstore.NewMemory()
	require.NoError(t, blobs.Set(ctx, "tg_recently_viewed:bad", []byte(`"not an array"`)))

	tr := NewTracker(ctx, "tg_recently_viewed:bad", blobs, zaptest.NewLogger(t))
	assert.Empty(t, tr.Recent())

	tr.RecordView(ctx, 1)
	assert.Equal(t, []int{1}, tr.Recent())
}

func TestLoad_TruncatesOverlongStoredList(t *testing.T) {
	ctx := context.Background()
	blobs := blobstore.NewMemory()
	require.NoError(t, blobs.Set(ctx, "tg_recently_viewed:long", []byte(`[9,8,7,6,5,4,3,2,1]`)))

	tr := NewTracker(ctx, "tg_recently_viewed:long", blobs, zaptest.NewLogger(t))
	assert.Equal(t, []int{9, 8, 7, 6, 5, 4}, tr.Recent())
}

// Package session scopes per-client state. A session exists only to key
// durable storage: each one owns a cart store and a recently-viewed tracker
// persisted under its own disjoint blob keys. There is no authentication
// attached to a session ID.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/techgear-labs/storefront/internal/cart"
	"github.com/techgear-labs/storefront/internal/recent"
	"github.com/techgear-labs/storefront/pkg/blobstore"
)

// Session bundles one client's stores.
type Session struct {
	ID     string
	Cart   *cart.Store
	Recent *recent.Tracker

	lastSeen time.Time
}

// Manager hands out sessions, lazily constructing the backing stores on
// first use (which loads their persisted state) and evicting instances that
// have been idle past the TTL. Eviction only drops the in-memory instance;
// the blobs stay durable, so a returning client gets its state back.
type Manager struct {
	catalog cart.Catalog
	blobs   blobstore.Store
	ttl     time.Duration
	lg      *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a Manager. ttl bounds how long an idle session's
// in-memory stores are kept.
func NewManager(cat cart.Catalog, blobs blobstore.Store, ttl time.Duration, lg *zap.Logger) *Manager {
	return &Manager{
		catalog:  cat,
		blobs:    blobs,
		ttl:      ttl,
		lg:       lg,
		sessions: make(map[string]*Session),
	}
}

// NewID returns a fresh session identifier.
func NewID() string {
	return uuid.New().String()
}

// ValidID reports whether id is an identifier this manager could have
// issued. Arbitrary client-supplied strings are rejected so they cannot
// grow the blob namespace unbounded.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Get returns the session for id, constructing it (and loading its persisted
// state) on first use.
func (m *Manager) Get(ctx context.Context, id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		s = &Session{
			ID:     id,
			Cart:   cart.NewStore(ctx, cart.StorageKeyPrefix+":"+id, m.catalog, m.blobs, m.lg),
			Recent: recent.NewTracker(ctx, recent.StorageKeyPrefix+":"+id, m.blobs, m.lg),
		}
		m.sessions[id] = s
	}
	s.lastSeen = time.Now()
	return s
}

// StartCleanup launches a goroutine that evicts idle sessions every
// interval until ctx is cancelled.
func (m *Manager) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				m.evict(now)
			}
		}
	}()
}

func (m *Manager) evict(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, s := range m.sessions {
		if now.Sub(s.lastSeen) >= m.ttl {
			delete(m.sessions, id)
		}
	}
}

// Len returns the number of live in-memory sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/familyvault/familyvault/internal/share"
)

// MemoryStore is an in-memory GrantStore used for unit tests and local runs
// without MongoDB. A single mutex covers the supersede-and-insert step, so the
// at-most-one-active invariant holds under concurrent callers.
type MemoryStore struct {
	mu     sync.RWMutex
	grants map[string]*share.ShareGrant
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{grants: make(map[string]*share.ShareGrant)}
}

func (m *MemoryStore) Insert(ctx context.Context, g *share.ShareGrant) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, old := range m.grants {
		if old.DocumentID == g.DocumentID && old.RecipientID == g.RecipientID && !old.Revoked {
			now := g.CreatedAt
			old.Revoked = true
			old.RevokedAt = &now
		}
	}
	if g.ID == "" {
		g.ID = primitive.NewObjectID().Hex()
	}
	cp := *g
	m.grants[g.ID] = &cp
	return g.ID, nil
}

func (m *MemoryStore) FindByID(ctx context.Context, id string) (*share.ShareGrant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.grants[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *MemoryStore) FindByRecipient(ctx context.Context, userID string) ([]*share.ShareGrant, error) {
	return m.collect(func(g *share.ShareGrant) bool { return g.RecipientID == userID })
}

func (m *MemoryStore) FindByOwner(ctx context.Context, userID string) ([]*share.ShareGrant, error) {
	return m.collect(func(g *share.ShareGrant) bool { return g.OwnerID == userID })
}

func (m *MemoryStore) FindActiveByRecipient(ctx context.Context, userID string, now time.Time) ([]*share.ShareGrant, error) {
	return m.collect(func(g *share.ShareGrant) bool {
		return g.RecipientID == userID && g.ActiveAt(now)
	})
}

func (m *MemoryStore) FindActiveByOwner(ctx context.Context, userID string, now time.Time) ([]*share.ShareGrant, error) {
	return m.collect(func(g *share.ShareGrant) bool {
		return g.OwnerID == userID && g.ActiveAt(now)
	})
}

func (m *MemoryStore) FindLatestByDocumentRecipient(ctx context.Context, documentID, userID string) (*share.ShareGrant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *share.ShareGrant
	for _, g := range m.grants {
		if g.DocumentID != documentID || g.RecipientID != userID {
			continue
		}
		if latest == nil || g.CreatedAt.After(latest.CreatedAt) {
			latest = g
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (m *MemoryStore) HasActiveByDocument(ctx context.Context, documentID string, now time.Time) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, g := range m.grants {
		if g.DocumentID == documentID && g.ActiveAt(now) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) MarkRevoked(ctx context.Context, id string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.grants[id]
	if !ok {
		return ErrNotFound
	}
	if g.Revoked {
		return nil
	}
	g.Revoked = true
	g.RevokedAt = &now
	return nil
}

// collect copies matching grants sorted newest first.
func (m *MemoryStore) collect(match func(*share.ShareGrant) bool) ([]*share.ShareGrant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*share.ShareGrant{}
	for _, g := range m.grants {
		if match(g) {
			cp := *g
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

var _ GrantStore = (*MemoryStore)(nil)

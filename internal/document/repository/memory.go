package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/familyvault/familyvault/internal/document"
)

var (
	ErrNotFound = errors.New("document not found")
)

// MemoryRepo is a simple in-memory repository used for unit tests and local
// runs without MongoDB.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*document.Document
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*document.Document)}
}

func (m *MemoryRepo) Create(ctx context.Context, doc *document.Document) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if doc.ID == "" {
		doc.ID = primitive.NewObjectID().Hex()
	}
	doc.CreatedAt = time.Now()
	doc.UpdatedAt = doc.CreatedAt
	cp := *doc
	m.store[doc.ID] = &cp
	return doc.ID, nil
}

func (m *MemoryRepo) Get(ctx context.Context, id string) (*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.store[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) ListByOwner(ctx context.Context, ownerID string, limit int) ([]*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*document.Document, 0, len(m.store))
	for _, d := range m.store {
		if d.OwnerID == ownerID {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return ErrNotFound
	}
	delete(m.store, id)
	return nil
}

var _ DocumentRepository = (*MemoryRepo)(nil)

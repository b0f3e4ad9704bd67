package users

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/familyvault/familyvault/internal/models"
)

// MemoryUserRepository keeps users in process memory, for local runs without
// MongoDB. Lookups mirror the Mongo repository: a missing user is (nil, nil).
type MemoryUserRepository struct {
	mu    sync.RWMutex
	bySub map[string]*models.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{bySub: make(map[string]*models.User)}
}

func (r *MemoryUserRepository) Create(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	u.Email = strings.ToLower(u.Email)
	if u.ID == "" {
		u.ID = primitive.NewObjectID().Hex()
	}
	cp := *u
	r.bySub[u.Sub] = &cp
	return nil
}

func (r *MemoryUserRepository) UpsertBySub(ctx context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := r.bySub[u.Sub]; ok {
		existing.Email = strings.ToLower(u.Email)
		existing.Name = u.Name
		existing.UpdatedAt = now
		cp := *existing
		return &cp, nil
	}
	cp := *u
	cp.ID = primitive.NewObjectID().Hex()
	cp.Email = strings.ToLower(u.Email)
	cp.CreatedAt = now
	cp.UpdatedAt = now
	r.bySub[u.Sub] = &cp
	out := cp
	return &out, nil
}

func (r *MemoryUserRepository) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.bySub[sub]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	email = strings.ToLower(email)
	for _, u := range r.bySub {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

var _ UserRepository = (*MemoryUserRepository)(nil)

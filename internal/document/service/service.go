package service

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/familyvault/familyvault/internal/document"
	"github.com/familyvault/familyvault/internal/document/repository"
)

var (
	ErrNotFound = errors.New("not found")
)

// Service defines the document business operations used by the handler layer
// and by the sharing subsystem (owner lookup, metadata joins).
type Service interface {
	Create(ctx context.Context, d *document.Document) (string, error)
	Get(ctx context.Context, id string) (*document.Document, error)
	GetOwner(ctx context.Context, id string) (string, error)
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]*document.Document, error)
	Delete(ctx context.Context, id string) error
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService() Service {
	return &service{repo: repository.NewMemoryRepo()}
}

// NewMongoService returns a Service backed by a MongoDB collection.
// Caller is responsible for creating the collection (and client) and passing it in.
func NewMongoService(col *mongo.Collection) Service {
	return &service{repo: repository.NewMongoRepo(col)}
}

type service struct {
	repo repository.DocumentRepository
}

func (s *service) Create(ctx context.Context, d *document.Document) (string, error) {
	return s.repo.Create(ctx, d)
}

func (s *service) Get(ctx context.Context, id string) (*document.Document, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return d, nil
}

func (s *service) GetOwner(ctx context.Context, id string) (string, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", ErrNotFound
	}
	return d.OwnerID, nil
}

func (s *service) ListByOwner(ctx context.Context, ownerID string, limit int) ([]*document.Document, error) {
	return s.repo.ListByOwner(ctx, ownerID, limit)
}

func (s *service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return ErrNotFound
	}
	return nil
}

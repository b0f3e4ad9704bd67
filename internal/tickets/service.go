package tickets

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"
)

// Service wraps repository operations with business logic
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service { return &Service{repo: r} }

// Issue stores a new download ticket and returns its token. The caller is
// responsible for having authorized the download first.
func (s *Service) Issue(ctx context.Context, sub, documentID string, ttl time.Duration) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)
	t := &Ticket{
		Token:      token,
		DocumentID: documentID,
		Sub:        sub,
		ExpiresAt:  time.Now().UTC().Add(ttl),
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return "", err
	}
	return token, nil
}

// Redeem returns the ticket for a valid token and deletes it (tickets are
// single-use). Returns nil for unknown or expired tokens.
func (s *Service) Redeem(ctx context.Context, token string) (*Ticket, error) {
	t, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, nil
	}
	if time.Now().UTC().After(t.ExpiresAt) {
		_ = s.repo.DeleteByToken(ctx, token)
		return nil, nil
	}
	if err := s.repo.DeleteByToken(ctx, token); err != nil {
		return nil, err
	}
	return t, nil
}

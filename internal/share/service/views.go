package service

import (
	"context"
	"fmt"
	"time"

	"github.com/familyvault/familyvault/internal/document"
	"github.com/familyvault/familyvault/internal/share"
)

// DocumentSummary is the slice of document metadata the share cards render.
type DocumentSummary struct {
	ID       string            `json:"_id"`
	Title    string            `json:"title"`
	MimeType string            `json:"mimeType"`
	Category document.Category `json:"category"`
}

// Party names one side of a share.
type Party struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// GrantView is one entry of the received/sent listings: a grant joined with
// document metadata and the counterparty profile, plus the derived status.
// Field names match the frontend's expectations.
type GrantView struct {
	ID           string             `json:"_id"`
	Document     *DocumentSummary   `json:"document,omitempty"`
	SharedBy     *Party             `json:"sharedBy,omitempty"`
	SharedWith   *Party             `json:"sharedWith,omitempty"`
	Permission   share.Permission   `json:"permissions"`
	Relationship share.Relationship `json:"relationshipType"`
	Message      string             `json:"shareMessage,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
	ExpiresAt    time.Time          `json:"expiresAt"`
	Status       share.GrantStatus  `json:"status"`
}

// ListReceived returns the grants where userID is the recipient, newest
// first, joined with document and owner metadata. With IncludeInactive set
// (the default) expired and revoked grants are returned and labeled by
// status rather than filtered out, matching the share history tabs.
func (s *Service) ListReceived(ctx context.Context, userID string) ([]GrantView, error) {
	now := s.now()
	grants, err := s.findForRecipient(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("list received: %w", err)
	}
	return s.project(ctx, grants, now, true), nil
}

// ListSent is the owner-side counterpart of ListReceived.
func (s *Service) ListSent(ctx context.Context, userID string) ([]GrantView, error) {
	now := s.now()
	grants, err := s.findForOwner(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("list sent: %w", err)
	}
	return s.project(ctx, grants, now, false), nil
}

func (s *Service) findForRecipient(ctx context.Context, userID string, now time.Time) ([]*share.ShareGrant, error) {
	if s.opts.IncludeInactive {
		return s.grants.FindByRecipient(ctx, userID)
	}
	return s.grants.FindActiveByRecipient(ctx, userID, now)
}

func (s *Service) findForOwner(ctx context.Context, userID string, now time.Time) ([]*share.ShareGrant, error) {
	if s.opts.IncludeInactive {
		return s.grants.FindByOwner(ctx, userID)
	}
	return s.grants.FindActiveByOwner(ctx, userID, now)
}

// project joins each grant with its document and counterparty. Missing
// documents or users (deleted since the share) leave nil fields rather than
// dropping the entry; the grant record itself is the source of truth.
func (s *Service) project(ctx context.Context, grants []*share.ShareGrant, now time.Time, received bool) []GrantView {
	out := make([]GrantView, 0, len(grants))
	for _, g := range grants {
		v := GrantView{
			ID:           g.ID,
			Permission:   g.Permission,
			Relationship: g.Relationship,
			Message:      g.Message,
			CreatedAt:    g.CreatedAt,
			ExpiresAt:    g.ExpiresAt,
			Status:       g.StatusAt(now),
		}
		if d, err := s.docs.Get(ctx, g.DocumentID); err == nil && d != nil {
			v.Document = &DocumentSummary{ID: d.ID, Title: d.Title, MimeType: d.MimeType, Category: d.Category}
		}
		counterparty := g.OwnerID
		if !received {
			counterparty = g.RecipientID
		}
		if u, err := s.users.GetBySub(ctx, counterparty); err == nil && u != nil {
			p := &Party{Name: u.Name, Email: u.Email}
			if received {
				v.SharedBy = p
			} else {
				v.SharedWith = p
			}
		}
		out = append(out, v)
	}
	return out
}

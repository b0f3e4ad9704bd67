package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/familyvault/familyvault/internal/document"
	"github.com/familyvault/familyvault/internal/models"
	"github.com/familyvault/familyvault/internal/share"
	"github.com/familyvault/familyvault/internal/share/repository"
	"github.com/familyvault/familyvault/pkg/metrics"
)

var (
	ErrNotFound          = errors.New("share not found")
	ErrDocumentNotFound  = errors.New("document not found")
	ErrNotOwner          = errors.New("only the document owner can manage shares")
	ErrSelfShare         = errors.New("cannot share a document with yourself")
	ErrRecipientNotFound = errors.New("no account exists for that email address")
	ErrValidation        = errors.New("invalid share request")
)

// DocumentDirectory is the document collaborator the sharing core consumes.
// A non-nil error means the document does not exist.
type DocumentDirectory interface {
	Get(ctx context.Context, id string) (*document.Document, error)
	GetOwner(ctx context.Context, id string) (string, error)
}

// UserDirectory resolves recipients and supplies profile data for the list
// views. Lookups return zero values (not errors) for unknown users.
type UserDirectory interface {
	ResolveByEmail(ctx context.Context, email string) (string, error)
	GetBySub(ctx context.Context, sub string) (*models.User, error)
}

// Options carries the sharing policy knobs.
type Options struct {
	// ValidityWindow is added to the creation time to produce expiresAt.
	ValidityWindow time.Duration
	// IncludeInactive controls whether the list views return expired and
	// revoked grants (labeled by status) or active grants only.
	IncludeInactive bool
}

// Option customizes a Service.
type Option func(*Service)

// WithNow replaces the clock, used by tests to pin expiry boundaries.
func WithNow(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service is the share lifecycle manager: the only component that mutates the
// grant store. It also hosts the read-side projections and the authorization
// engine over the same collaborators.
type Service struct {
	grants   repository.GrantStore
	docs     DocumentDirectory
	users    UserDirectory
	opts     Options
	validate *validator.Validate
	now      func() time.Time
}

func New(grants repository.GrantStore, docs DocumentDirectory, users UserDirectory, opts Options, setters ...Option) *Service {
	if opts.ValidityWindow <= 0 {
		opts.ValidityWindow = 30 * 24 * time.Hour
	}
	s := &Service{
		grants:   grants,
		docs:     docs,
		users:    users,
		opts:     opts,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, set := range setters {
		set(s)
	}
	return s
}

// CreateShareInput is the caller-supplied share request. Relationship defaults
// to "other" when empty; the message cap matches the frontend's 200-char field.
type CreateShareInput struct {
	DocumentID     string             `validate:"required"`
	RecipientEmail string             `validate:"required,email"`
	Permission     share.Permission   `validate:"required,oneof=view download"`
	Relationship   share.Relationship `validate:"omitempty,oneof=father mother spouse child sibling other"`
	Message        string             `validate:"max=200"`
}

// CreateShare validates the request, resolves the recipient, and inserts a new
// grant. An existing active grant for the same (document, recipient) pair is
// superseded: the store revokes it in the same atomic step, so re-sharing is
// how an owner changes a recipient's permission.
func (s *Service) CreateShare(ctx context.Context, ownerID string, in CreateShareInput) (*share.ShareGrant, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if in.Relationship == "" {
		in.Relationship = share.RelationshipOther
	}

	docOwner, err := s.docs.GetOwner(ctx, in.DocumentID)
	if err != nil {
		return nil, ErrDocumentNotFound
	}
	if docOwner != ownerID {
		return nil, ErrNotOwner
	}

	recipient, err := s.users.ResolveByEmail(ctx, in.RecipientEmail)
	if err != nil {
		return nil, fmt.Errorf("resolve recipient: %w", err)
	}
	if recipient == "" {
		return nil, ErrRecipientNotFound
	}
	if recipient == ownerID {
		return nil, ErrSelfShare
	}

	now := s.now()
	g := &share.ShareGrant{
		DocumentID:   in.DocumentID,
		OwnerID:      ownerID,
		RecipientID:  recipient,
		Permission:   in.Permission,
		Relationship: in.Relationship,
		Message:      in.Message,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.opts.ValidityWindow),
	}
	if _, err := s.grants.Insert(ctx, g); err != nil {
		return nil, fmt.Errorf("insert grant: %w", err)
	}
	metrics.SharesCreated.WithLabelValues(string(g.Permission)).Inc()
	return g, nil
}

// RevokeShare marks a grant revoked. Only the grant's owner may revoke;
// revoking an already-revoked grant succeeds (idempotent).
func (s *Service) RevokeShare(ctx context.Context, actorID, grantID string) error {
	g, err := s.grants.FindByID(ctx, grantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if g.OwnerID != actorID {
		return ErrNotOwner
	}
	if err := s.grants.MarkRevoked(ctx, grantID, s.now()); err != nil {
		return err
	}
	metrics.SharesRevoked.Inc()
	return nil
}

// IsShared reports whether at least one active grant references the document.
// Computed on read; nothing stores a shared flag.
func (s *Service) IsShared(ctx context.Context, documentID string) (bool, error) {
	return s.grants.HasActiveByDocument(ctx, documentID, s.now())
}

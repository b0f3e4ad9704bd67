package repository

import (
	"context"
	"errors"
	"time"

	"github.com/familyvault/familyvault/internal/share"
)

var (
	// ErrNotFound is returned by FindByID when no grant has the given id.
	ErrNotFound = errors.New("grant not found")
	// ErrConflict is returned when the at-most-one-active-per-pair constraint
	// is violated despite the supersede step (lost race on insert).
	ErrConflict = errors.New("active grant already exists for document and recipient")
)

// GrantStore persists share grants. Implementations must make Insert atomic
// with respect to the supersede step: two concurrent inserts for the same
// (document, recipient) pair may never both leave an active grant behind.
// Authorization logic does not belong here.
type GrantStore interface {
	// Insert stores a new grant, first revoking any unrevoked grant for the
	// same (documentId, recipientId) pair. Returns the assigned grant id.
	Insert(ctx context.Context, g *share.ShareGrant) (string, error)

	FindByID(ctx context.Context, id string) (*share.ShareGrant, error)

	// FindByRecipient / FindByOwner return the full grant history, newest
	// first, regardless of expiry or revocation.
	FindByRecipient(ctx context.Context, userID string) ([]*share.ShareGrant, error)
	FindByOwner(ctx context.Context, userID string) ([]*share.ShareGrant, error)

	// Active variants filter to grants conferring access at the given instant.
	FindActiveByRecipient(ctx context.Context, userID string, now time.Time) ([]*share.ShareGrant, error)
	FindActiveByOwner(ctx context.Context, userID string, now time.Time) ([]*share.ShareGrant, error)

	// FindLatestByDocumentRecipient returns the most recently created grant
	// for the pair, or (nil, nil) when the document was never shared with the
	// user.
	FindLatestByDocumentRecipient(ctx context.Context, documentID, userID string) (*share.ShareGrant, error)

	// HasActiveByDocument reports whether at least one active grant references
	// the document (the derived isShared flag).
	HasActiveByDocument(ctx context.Context, documentID string, now time.Time) (bool, error)

	// MarkRevoked sets revokedAt. Revoking an already-revoked grant is a
	// no-op success.
	MarkRevoked(ctx context.Context, id string, now time.Time) error
}

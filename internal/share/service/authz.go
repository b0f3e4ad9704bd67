package service

import (
	"context"
	"fmt"

	"github.com/familyvault/familyvault/internal/share"
	"github.com/familyvault/familyvault/pkg/metrics"
)

// Action is the operation an access check is asked about. Actions share the
// permission value space: a grant's permission names the strongest action it
// covers.
type Action = share.Permission

const (
	ActionView     = share.PermissionView
	ActionDownload = share.PermissionDownload
)

// DenyReason identifies why an access check failed. Each reason is distinct so
// the API layer can render a precise message.
type DenyReason string

const (
	DenyNotShared              DenyReason = "not_shared"
	DenyInsufficientPermission DenyReason = "insufficient_permission"
	DenyExpired                DenyReason = "expired"
	DenyRevoked                DenyReason = "revoked"
)

// Decision is the outcome of an access check. Denials are routine results,
// not errors; the error return is reserved for lookup failures.
type Decision struct {
	Allowed bool       `json:"allowed"`
	Reason  DenyReason `json:"reason,omitempty"`
}

func allow() Decision                 { return Decision{Allowed: true} }
func deny(reason DenyReason) Decision { return Decision{Reason: reason} }

// Authorize decides whether actorID may perform action (view or download) on
// the document. Read-only and safe for unbounded concurrent callers.
//
// Check order is fixed so denial reasons are deterministic: ownership
// short-circuits first, then missing grant, insufficient permission, expiry,
// revocation.
func (s *Service) Authorize(ctx context.Context, actorID, documentID string, action share.Permission) (Decision, error) {
	if !action.Valid() {
		return Decision{}, fmt.Errorf("%w: unknown action %q", ErrValidation, action)
	}

	owner, err := s.docs.GetOwner(ctx, documentID)
	if err != nil {
		return Decision{}, ErrDocumentNotFound
	}
	if owner == actorID {
		return s.record(allow()), nil
	}

	g, err := s.grants.FindLatestByDocumentRecipient(ctx, documentID, actorID)
	if err != nil {
		return Decision{}, fmt.Errorf("grant lookup: %w", err)
	}
	switch {
	case g == nil:
		return s.record(deny(DenyNotShared)), nil
	case !g.Permission.Allows(action):
		return s.record(deny(DenyInsufficientPermission)), nil
	case !s.now().Before(g.ExpiresAt):
		return s.record(deny(DenyExpired)), nil
	case g.Revoked:
		return s.record(deny(DenyRevoked)), nil
	}
	return s.record(allow()), nil
}

func (s *Service) record(d Decision) Decision {
	if d.Allowed {
		metrics.AuthzDecisions.WithLabelValues("allow", "").Inc()
	} else {
		metrics.AuthzDecisions.WithLabelValues("deny", string(d.Reason)).Inc()
	}
	return d
}

package share

import "time"

// Permission is the access level carried by a grant. Download implies view;
// view alone covers metadata and preview only.
type Permission string

const (
	PermissionView     Permission = "view"
	PermissionDownload Permission = "download"
)

// Valid reports whether p is a recognized permission value.
func (p Permission) Valid() bool {
	return p == PermissionView || p == PermissionDownload
}

// Allows reports whether a grant holding permission p covers the requested
// action. Download covers both actions, view covers only view.
func (p Permission) Allows(action Permission) bool {
	if p == PermissionDownload {
		return true
	}
	return action == PermissionView
}

// Relationship is a descriptive tag on a grant. It carries no access-control
// weight; the frontend displays it on share cards.
type Relationship string

const (
	RelationshipFather  Relationship = "father"
	RelationshipMother  Relationship = "mother"
	RelationshipSpouse  Relationship = "spouse"
	RelationshipChild   Relationship = "child"
	RelationshipSibling Relationship = "sibling"
	RelationshipOther   Relationship = "other"
)

func (r Relationship) Valid() bool {
	switch r {
	case RelationshipFather, RelationshipMother, RelationshipSpouse,
		RelationshipChild, RelationshipSibling, RelationshipOther:
		return true
	}
	return false
}

// GrantStatus is the derived lifecycle state of a grant at a point in time.
type GrantStatus string

const (
	StatusActive  GrantStatus = "active"
	StatusExpired GrantStatus = "expired"
	StatusRevoked GrantStatus = "revoked"
)

// ShareGrant records one owner sharing one document with one recipient.
// Grants are never deleted; they expire naturally or are revoked, and the
// record is kept for the history views.
type ShareGrant struct {
	ID           string       `bson:"_id,omitempty" json:"id"`
	DocumentID   string       `bson:"documentId" json:"documentId"`
	OwnerID      string       `bson:"ownerId" json:"ownerId"`
	RecipientID  string       `bson:"recipientId" json:"recipientId"`
	Permission   Permission   `bson:"permission" json:"permissions"`
	Relationship Relationship `bson:"relationship" json:"relationshipType"`
	Message      string       `bson:"message,omitempty" json:"shareMessage,omitempty"`
	CreatedAt    time.Time    `bson:"createdAt" json:"createdAt"`
	ExpiresAt    time.Time    `bson:"expiresAt" json:"expiresAt"`
	// Revoked mirrors RevokedAt so the Mongo store can keep a partial unique
	// index over unrevoked (documentId, recipientId) pairs.
	Revoked   bool       `bson:"revoked" json:"-"`
	RevokedAt *time.Time `bson:"revokedAt,omitempty" json:"revokedAt,omitempty"`
}

// ActiveAt reports whether the grant confers access at the given instant.
func (g *ShareGrant) ActiveAt(now time.Time) bool {
	return !g.Revoked && now.Before(g.ExpiresAt)
}

// StatusAt derives the display status: revocation wins over expiry.
func (g *ShareGrant) StatusAt(now time.Time) GrantStatus {
	if g.Revoked {
		return StatusRevoked
	}
	if !now.Before(g.ExpiresAt) {
		return StatusExpired
	}
	return StatusActive
}

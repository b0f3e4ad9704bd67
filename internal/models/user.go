package models

import "time"

// User represents an application user, either registered locally with a
// password or upserted from verified OIDC token claims. The subject (`sub`)
// is the identity every other record references; Mongo's _id stays internal
// to the users collection. PasswordHash is empty for OIDC-only accounts.
type User struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	Sub          string    `bson:"sub" json:"sub"`
	Email        string    `bson:"email" json:"email"`
	Name         string    `bson:"name" json:"name"`
	PasswordHash string    `bson:"passwordHash,omitempty" json:"-"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

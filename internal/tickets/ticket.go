package tickets

import "time"

// Ticket is a short-lived, single-use authorization to fetch one document's
// bytes. Minted only after the sharing core allows a download, so the
// redemption endpoint does not need the caller's credentials.
type Ticket struct {
	Token      string    `bson:"token" json:"token"`
	DocumentID string    `bson:"documentId" json:"documentId"`
	Sub        string    `bson:"sub" json:"sub"`
	ExpiresAt  time.Time `bson:"expiresAt" json:"expiresAt"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
}

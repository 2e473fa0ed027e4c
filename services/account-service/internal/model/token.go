package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// OutstandingToken records a session (by its JTI) that has been issued to a
// user and not revoked yet. "Log out everywhere" walks these records.
type OutstandingToken struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	JTI       string        `bson:"jti"`
	UserID    bson.ObjectID `bson:"user_id"`
	ExpiresAt time.Time     `bson:"expires_at"`
	CreatedAt time.Time     `bson:"created_at"`
}

// BlacklistedToken marks a session JTI as permanently revoked. Entries are
// never removed; a blacklisted token stays unusable forever.
type BlacklistedToken struct {
	ID            bson.ObjectID `bson:"_id,omitempty"`
	JTI           string        `bson:"jti"`
	BlacklistedAt time.Time     `bson:"blacklisted_at"`
}

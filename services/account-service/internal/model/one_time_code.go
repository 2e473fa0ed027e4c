package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// CodePurpose tags what a one-time code may be redeemed for. A code issued
// for one purpose is never valid input for the other.
type CodePurpose string

const (
	PurposeActivation CodePurpose = "activation"
	PurposeRecovery   CodePurpose = "recovery"
)

// OneTimeCode is the single live short-lived secret owned by an account.
// Issuing a new code replaces the previous one, and consuming it removes the
// record entirely so a spent value can never compare equal again.
type OneTimeCode struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	UserID    bson.ObjectID `bson:"user_id"`
	Code      string        `bson:"code"`
	Purpose   CodePurpose   `bson:"purpose"`
	IssuedAt  time.Time     `bson:"issued_at"`
	ExpiresAt time.Time     `bson:"expires_at,omitempty"` // zero time means the code never expires
}

// Expired reports whether the code's time-to-live has elapsed at now.
func (c *OneTimeCode) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

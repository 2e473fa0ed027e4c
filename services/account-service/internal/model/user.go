package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User represents a registered account. Accounts start inactive and become
// active once the activation code sent to their email is redeemed.
type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Email        string        `bson:"email"`
	Username     string        `bson:"username"`
	FirstName    string        `bson:"first_name"`
	LastName     string        `bson:"last_name"`
	PasswordHash string        `bson:"password_hash"`
	Active       bool          `bson:"active"`
	Mentor       bool          `bson:"mentor"`
	Experience   string        `bson:"experience,omitempty"`
	Audience     string        `bson:"audience,omitempty"`
	CreatedAt    time.Time     `bson:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at"`
}

package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Profile holds the public-facing details a user attaches to their account.
// Each user owns at most one profile; it is removed with the account.
type Profile struct {
	ID            bson.ObjectID `bson:"_id,omitempty"`
	UserID        bson.ObjectID `bson:"user_id"`
	Competence    string        `bson:"competence,omitempty"`
	Language      string        `bson:"language,omitempty"`
	SiteURL       string        `bson:"site_url,omitempty"`
	TwitterURL    string        `bson:"twitter_url,omitempty"`
	FacebookURL   string        `bson:"facebook_url,omitempty"`
	LinkedinURL   string        `bson:"linkedin_url,omitempty"`
	YoutubeURL    string        `bson:"youtube_url,omitempty"`
	Hidden        bool          `bson:"hidden"`
	HiddenCourses bool          `bson:"hidden_courses"`
	Promotions    bool          `bson:"promotions"`
	MentorAds     bool          `bson:"mentor_ads"`
	EmailAds      bool          `bson:"email_ads"`
	CreatedAt     time.Time     `bson:"created_at"`
	UpdatedAt     time.Time     `bson:"updated_at"`
}

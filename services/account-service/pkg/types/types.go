package types

import "github.com/golang-jwt/jwt/v5"

// Token types carried in the token_type claim, so a refresh token can never
// be replayed where an access token is expected and vice versa.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Tokens is the session token pair handed to a client at login.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// SessionClaims are the JWT claims carried by both tokens of a session. The
// registered ID claim (JTI) identifies the session; access and refresh tokens
// share it, so blacklisting the JTI revokes both at once.
type SessionClaims struct {
	UserID    string `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

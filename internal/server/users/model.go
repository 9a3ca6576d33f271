package users

import (
	"crypto/subtle"
	"time"
)

// User is the persisted account. RefreshToken is the single outstanding
// session pointer; nil means no session.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	RefreshToken *string
	CreatedAt    time.Time
}

// HasSession reports whether token is the user's current refresh token.
// The comparison runs in constant time.
func (u *User) HasSession(token string) bool {
	return u.RefreshToken != nil && token != "" &&
		subtle.ConstantTimeCompare([]byte(*u.RefreshToken), []byte(token)) == 1
}

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Package users owns the user record and the session flows built on it:
// registration, login, refresh and logout.
package users

import "context"

// Repository is the user store. Implementations return common.ErrorNotFound
// for missing users and common.ErrEmailTaken on duplicate e-mails.
type Repository interface {
	// Create inserts user. ID must already be set.
	Create(ctx context.Context, user *User) (*User, error)

	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)

	// SetRefreshToken overwrites the session pointer in one atomic write.
	// Concurrent writers resolve as last writer wins.
	SetRefreshToken(ctx context.Context, userID, token string) error

	// ClearRefreshToken sets the pointer to NULL. With a non-empty token it
	// only clears when the stored value equals token; the result reports
	// whether a row changed.
	ClearRefreshToken(ctx context.Context, userID, token string) (bool, error)
}

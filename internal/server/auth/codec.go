// Package auth holds the cryptographic primitives of the session subsystem:
// the signed token codec and the password hash verifier.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the token payload. UserID mirrors the registered subject and is
// what the storefront frontend reads.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
}

// Codec signs and verifies HS256 tokens with a single secret. Access and
// refresh tokens each get their own Codec built from a distinct secret, so
// one can never verify the other.
type Codec struct {
	secret []byte
	now    func() time.Time
	parser *jwt.Parser
}

// CodecOption customizes a Codec.
type CodecOption func(*Codec)

// WithClock replaces time.Now, mainly for expiry tests.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.now = now
	}
}

// NewCodec builds a Codec for secret.
func NewCodec(secret []byte, opts ...CodecOption) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret must not be empty")
	}

	c := &Codec{
		secret: append([]byte(nil), secret...),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(c.now),
	)
	return c, nil
}

// Sign returns a token for subject that expires ttl after its issue time.
// Issue time is truncated to whole seconds, the precision of the exp claim.
func (c *Codec) Sign(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("token subject must not be empty")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("token ttl must be positive, got %s", ttl)
	}

	issuedAt := c.now().Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
			ID:        uuid.NewString(),
		},
		UserID: subject,
	})

	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Verify checks signature and expiry and returns the embedded subject.
// Failures are common.ErrTokenExpired, common.ErrTokenSignature or
// common.ErrTokenMalformed, each wrapping the parser's own error.
func (c *Codec) Verify(tokenString string) (string, error) {
	claims, err := c.Parse(tokenString)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// Parse is Verify returning the full claim set.
func (c *Codec) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := c.parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	if !token.Valid {
		return nil, common.ErrTokenMalformed
	}
	if claims.UserID == "" || claims.UserID != claims.Subject {
		return nil, fmt.Errorf("%w: subject mismatch", common.ErrTokenMalformed)
	}

	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", common.ErrTokenSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", common.ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %v", common.ErrTokenMalformed, err)
	}
}

package auth

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor for new hashes.
const DefaultCost = 10

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// HashPassword returns a salted bcrypt hash of plain.
func HashPassword(plain string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether plain matches the stored bcrypt hash.
// Malformed hashes never match.
func CheckPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

var dummyHash = sync.OnceValue(func() string {
	h, err := HashPassword("shopauth-dummy-password", DefaultCost)
	if err != nil {
		panic(err)
	}
	return h
})

// BurnCompare runs a comparison against a fixed hash of the default cost
// and discards the result. Callers use it when no user exists so that an
// unknown email costs as much as a wrong password.
func BurnCompare(plain string) {
	_ = CheckPassword(plain, dummyHash())
}

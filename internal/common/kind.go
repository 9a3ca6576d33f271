package common

import "errors"

// Kind is the coarse error class that is allowed to cross the HTTP boundary.
// Anything finer (why a token was rejected, which query failed) stays in logs.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidCredentials
	KindNoRefreshToken
	KindInvalidRefreshToken
	KindStoreUnavailable
	KindRateLimited
	KindEmailTaken
	KindBadRequest
)

var kindNames = map[Kind]string{
	KindInternal:            "internal",
	KindInvalidCredentials:  "invalid_credentials",
	KindNoRefreshToken:      "no_refresh_token",
	KindInvalidRefreshToken: "invalid_refresh_token",
	KindStoreUnavailable:    "store_unavailable",
	KindRateLimited:         "rate_limited",
	KindEmailTaken:          "email_taken",
	KindBadRequest:          "bad_request",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// kindOrder lists sentinels in match priority. The codec errors fold into
// KindInvalidRefreshToken so a leaked codec error still reads as opaque.
var kindOrder = []struct {
	err  error
	kind Kind
}{
	{ErrInvalidCredentials, KindInvalidCredentials},
	{ErrNoRefreshToken, KindNoRefreshToken},
	{ErrInvalidRefreshToken, KindInvalidRefreshToken},
	{ErrTokenExpired, KindInvalidRefreshToken},
	{ErrTokenMalformed, KindInvalidRefreshToken},
	{ErrTokenSignature, KindInvalidRefreshToken},
	{ErrStoreUnavailable, KindStoreUnavailable},
	{ErrRateLimited, KindRateLimited},
	{ErrEmailTaken, KindEmailTaken},
	{ErrBadRequest, KindBadRequest},
}

// KindOf classifies err. Unknown errors are KindInternal.
func KindOf(err error) Kind {
	for _, e := range kindOrder {
		if errors.Is(err, e.err) {
			return e.kind
		}
	}
	return KindInternal
}

package common

// Cookie names carrying the session tokens between browser and server.
const (
	AccessTokenCookieName  = "access_token"
	RefreshTokenCookieName = "refresh_token"
)

// EnvProduction is the environment name that turns on the Secure cookie attribute.
const EnvProduction = "production"

package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/flagx"
)

// Environment variable names. The JWT_* names and their second-based TTLs
// match what the storefront frontend already exports.
const (
	EnvAccessSecret     = "JWT_ACCESS_SECRET"
	EnvRefreshSecret    = "JWT_REFRESH_SECRET"
	EnvAccessExpires    = "JWT_ACCESS_EXPIRES"
	EnvRefreshExpires   = "JWT_REFRESH_EXPIRES"
	EnvEnvironment      = "APP_ENV"
	EnvHTTPAddr         = "HTTP_ADDR"
	EnvDatabaseDSN      = "DATABASE_DSN"
	EnvRedisAddr        = "REDIS_ADDR"
	EnvLoginPath        = "LOGIN_PATH"
	EnvProtectedPaths   = "PROTECTED_PATHS"
	EnvRevokeOnLogout   = "REVOKE_ON_LOGOUT"
	EnvLogBackend       = "LOG_BACKEND"
	EnvMaxLoginAttempts = "MAX_LOGIN_ATTEMPTS"
	EnvTrustedProxies   = "TRUSTED_PROXIES"
)

// parseEnv overlays values from the process environment, read through lookup.
func parseEnv(config *Config, lookup func(string) (string, bool)) error {
	get := func(key string) string {
		v, _ := lookup(key)
		return v
	}

	setString(&config.AccessSecret, get(EnvAccessSecret))
	setString(&config.RefreshSecret, get(EnvRefreshSecret))
	setString(&config.Environment, get(EnvEnvironment))
	setString(&config.EndpointAddrHTTP, get(EnvHTTPAddr))
	setString(&config.DatabaseDSN, get(EnvDatabaseDSN))
	setString(&config.RedisAddr, get(EnvRedisAddr))
	setString(&config.LoginPath, get(EnvLoginPath))
	setString(&config.LogBackend, get(EnvLogBackend))

	if v := get(EnvProtectedPaths); v != "" {
		config.ProtectedPaths = flagx.SplitList(v)
	}
	if v := get(EnvTrustedProxies); v != "" {
		config.TrustedProxies = flagx.SplitList(v)
	}
	if err := setSeconds(&config.AccessTokenTTL, EnvAccessExpires, get(EnvAccessExpires)); err != nil {
		return err
	}
	if err := setSeconds(&config.RefreshTokenTTL, EnvRefreshExpires, get(EnvRefreshExpires)); err != nil {
		return err
	}
	if v := get(EnvRevokeOnLogout); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRevokeOnLogout, err)
		}
		config.RevokeOnLogout = b
	}
	if v := get(EnvMaxLoginAttempts); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxLoginAttempts, err)
		}
		config.MaxLoginAttempts = n
	}
	return nil
}

func setSeconds(dst *time.Duration, key, v string) error {
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = time.Duration(n) * time.Second
	return nil
}

package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/shopauth/internal/flagx"
	"github.com/dmitrijs2005/shopauth/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations are
// read through timex.Duration so both "15m" and nanosecond integers work.
// Pointer fields distinguish "absent" from the zero value.
type JsonConfig struct {
	EndpointAddrHTTP string          `json:"endpoint_addr_http"`
	DatabaseDSN      string          `json:"database_dsn"`
	RedisAddr        string          `json:"redis_addr"`
	AccessSecret     string          `json:"access_secret"`
	RefreshSecret    string          `json:"refresh_secret"`
	AccessTokenTTL   *timex.Duration `json:"access_token_ttl"`
	RefreshTokenTTL  *timex.Duration `json:"refresh_token_ttl"`
	Environment      string          `json:"environment"`
	LoginPath        string          `json:"login_path"`
	ProtectedPaths   []string        `json:"protected_paths"`
	RevokeOnLogout   *bool           `json:"revoke_on_logout"`
	StoreTimeout     *timex.Duration `json:"store_timeout"`
	LogBackend       string          `json:"log_backend"`
	MaxLoginAttempts *int            `json:"max_login_attempts"`
	LoginCooldown    *timex.Duration `json:"login_cooldown"`
	TrustedProxies   []string        `json:"trusted_proxies"`
}

// parseJson overlays values from the JSON file named on the command line
// (-c/-config) or by $CONFIG. Only keys present in the file override config.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.AccessSecret, c.AccessSecret)
	setString(&config.RefreshSecret, c.RefreshSecret)
	setString(&config.Environment, c.Environment)
	setString(&config.LoginPath, c.LoginPath)
	setString(&config.LogBackend, c.LogBackend)

	if c.AccessTokenTTL != nil {
		config.AccessTokenTTL = c.AccessTokenTTL.Duration
	}
	if c.RefreshTokenTTL != nil {
		config.RefreshTokenTTL = c.RefreshTokenTTL.Duration
	}
	if c.StoreTimeout != nil {
		config.StoreTimeout = c.StoreTimeout.Duration
	}
	if c.LoginCooldown != nil {
		config.LoginCooldown = c.LoginCooldown.Duration
	}
	if c.RevokeOnLogout != nil {
		config.RevokeOnLogout = *c.RevokeOnLogout
	}
	if c.MaxLoginAttempts != nil {
		config.MaxLoginAttempts = *c.MaxLoginAttempts
	}
	if len(c.ProtectedPaths) > 0 {
		config.ProtectedPaths = c.ProtectedPaths
	}
	if len(c.TrustedProxies) > 0 {
		config.TrustedProxies = c.TrustedProxies
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

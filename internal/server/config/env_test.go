package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	err := parseEnv(cfg, envMap(map[string]string{
		EnvAccessSecret:     "a",
		EnvRefreshSecret:    "r",
		EnvAccessExpires:    "60",
		EnvRefreshExpires:   "3600",
		EnvEnvironment:      "production",
		EnvHTTPAddr:         ":9000",
		EnvDatabaseDSN:      "postgres://x",
		EnvRedisAddr:        "localhost:6379",
		EnvLoginPath:        "/signIn",
		EnvProtectedPaths:   "/dashboard, /account",
		EnvRevokeOnLogout:   "false",
		EnvLogBackend:       "zap",
		EnvMaxLoginAttempts: "3",
		EnvTrustedProxies:   "10.0.0.1",
	}))
	require.NoError(t, err)

	assert.Equal(t, "a", cfg.AccessSecret)
	assert.Equal(t, "r", cfg.RefreshSecret)
	assert.Equal(t, time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, time.Hour, cfg.RefreshTokenTTL)
	assert.True(t, cfg.SecureCookies())
	assert.Equal(t, ":9000", cfg.EndpointAddrHTTP)
	assert.Equal(t, "postgres://x", cfg.DatabaseDSN)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "/signIn", cfg.LoginPath)
	assert.Equal(t, []string{"/dashboard", "/account"}, cfg.ProtectedPaths)
	assert.False(t, cfg.RevokeOnLogout)
	assert.Equal(t, "zap", cfg.LogBackend)
	assert.Equal(t, 3, cfg.MaxLoginAttempts)
	assert.Equal(t, []string{"10.0.0.1"}, cfg.TrustedProxies)
}

func TestParseEnv_EmptyKeepsDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	require.NoError(t, parseEnv(cfg, envMap(nil)))
	assert.Equal(t, 900*time.Second, cfg.AccessTokenTTL)
	assert.True(t, cfg.RevokeOnLogout)
}

func TestParseEnv_BadNumbers(t *testing.T) {
	for _, key := range []string{EnvAccessExpires, EnvRefreshExpires, EnvMaxLoginAttempts, EnvRevokeOnLogout} {
		t.Run(key, func(t *testing.T) {
			cfg := &Config{}
			cfg.LoadDefaults()
			err := parseEnv(cfg, envMap(map[string]string{key: "soon"}))
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

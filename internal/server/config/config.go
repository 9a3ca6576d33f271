// Package config handles configuration for the shopauth server: defaults,
// a JSON overlay, environment variables and command-line flags, applied in
// that order.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/common"
)

// Config holds runtime settings for the server. It is built once at start-up
// and then only read.
//
// Fields:
//   - EndpointAddrHTTP: bind address for the HTTP listener.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty selects the in-memory user store.
//   - RedisAddr: Redis address for login throttling. Empty disables throttling.
//   - AccessSecret / RefreshSecret: HMAC keys for the two token kinds. Required, distinct.
//   - AccessTokenTTL / RefreshTokenTTL: token lifetimes, also used as cookie Max-Age.
//   - Environment: "production" turns on the Secure cookie attribute.
//   - LoginPath: where the gate redirects unauthenticated callers.
//   - ProtectedPaths: path prefixes guarded by the gate.
//   - RevokeOnLogout: clear the stored refresh pointer on logout.
//   - StoreTimeout: upper bound for a single user-store call.
//   - LogBackend: "slog" or "zap".
//   - MaxLoginAttempts / LoginCooldown: throttle budget per email and client IP.
//   - TrustedProxies: proxy IPs or CIDRs whose X-Forwarded-For is believed.
//     Empty means the client IP is the socket peer.
type Config struct {
	EndpointAddrHTTP string
	DatabaseDSN      string
	RedisAddr        string
	AccessSecret     string
	RefreshSecret    string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	Environment      string
	LoginPath        string
	ProtectedPaths   []string
	RevokeOnLogout   bool
	StoreTimeout     time.Duration
	LogBackend       string
	MaxLoginAttempts int
	LoginCooldown    time.Duration
	TrustedProxies   []string
}

// LoadDefaults populates Config with development defaults. Secrets are left
// empty on purpose: they must come from the environment, a file or flags.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.DatabaseDSN = ""
	c.RedisAddr = ""
	c.AccessTokenTTL = 900 * time.Second
	c.RefreshTokenTTL = 604800 * time.Second
	c.Environment = "development"
	c.LoginPath = "/auth/login"
	c.ProtectedPaths = []string{"/dashboard", "/cart", "/orders"}
	c.RevokeOnLogout = true
	c.StoreTimeout = 3 * time.Second
	c.LogBackend = "slog"
	c.MaxLoginAttempts = 5
	c.LoginCooldown = 15 * time.Minute
}

// SecureCookies reports whether cookies must carry the Secure attribute.
func (c *Config) SecureCookies() bool {
	return c.Environment == common.EnvProduction
}

// Validate checks the invariants the token subsystem relies on.
func (c *Config) Validate() error {
	var errs []error
	if c.AccessSecret == "" {
		errs = append(errs, errors.New("access token secret is required"))
	}
	if c.RefreshSecret == "" {
		errs = append(errs, errors.New("refresh token secret is required"))
	}
	if c.AccessSecret != "" && c.AccessSecret == c.RefreshSecret {
		errs = append(errs, errors.New("access and refresh secrets must differ"))
	}
	if c.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("access token ttl must be positive"))
	}
	if c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("refresh token ttl must be positive"))
	}
	if c.StoreTimeout <= 0 {
		errs = append(errs, errors.New("store timeout must be positive"))
	}
	if c.MaxLoginAttempts <= 0 {
		errs = append(errs, errors.New("max login attempts must be positive"))
	}
	if c.LoginCooldown <= 0 {
		errs = append(errs, errors.New("login cooldown must be positive"))
	}
	if c.LoginPath == "" || c.LoginPath[0] != '/' {
		errs = append(errs, fmt.Errorf("login path %q must be absolute", c.LoginPath))
	}
	for _, p := range c.ProtectedPaths {
		switch {
		case strings.TrimSuffix(p, "/") == "":
			errs = append(errs, fmt.Errorf("protected path %q would cover every page", p))
		case PathUnder(c.LoginPath, p):
			errs = append(errs, fmt.Errorf("login path %q is under protected path %q", c.LoginPath, p))
		}
	}
	for _, p := range c.TrustedProxies {
		if net.ParseIP(p) == nil {
			if _, _, err := net.ParseCIDR(p); err != nil {
				errs = append(errs, fmt.Errorf("trusted proxy %q is not an IP or CIDR", p))
			}
		}
	}
	return errors.Join(errs...)
}

// PathUnder matches whole path segments: prefix "/cart" covers "/cart" and
// "/cart/x" but not "/cartoon".
func PathUnder(path, prefix string) bool {
	if prefix == "" {
		return false
	}
	return path == prefix || strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")+"/")
}

// LoadConfig builds a Config from defaults, then the JSON file named by
// -c/-config (or $CONFIG), then environment variables, then flags, and
// validates the result.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

func load(args []string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	if err := parseEnv(cfg, lookup); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

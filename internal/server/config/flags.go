package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string      HTTP bind address (e.g., ":8080")
//	-d string      PostgreSQL DSN
//	-s string      access token secret
//	-rs string     refresh token secret
//	-t int         access token ttl, seconds
//	-r int         refresh token ttl, seconds
//	-e string      environment ("production" enables Secure cookies)
//	-l string      login path used by the gate redirect
//	-p string      comma separated protected path prefixes
//	-redis string  Redis address for login throttling
//	-log string    log backend: slog or zap
//	-proxies string comma separated trusted proxy IPs/CIDRs
//
// Only these flags are taken from args, so -c/-config and flags of other
// components do not collide.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-s", "-rs", "-t", "-r", "-e", "-l", "-p", "-redis", "-log", "-proxies"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.AccessSecret, "s", config.AccessSecret, "access token secret")
	fs.StringVar(&config.RefreshSecret, "rs", config.RefreshSecret, "refresh token secret")

	accessTTL := fs.Int64("t", int64(config.AccessTokenTTL/time.Second), "access token ttl (in seconds)")
	refreshTTL := fs.Int64("r", int64(config.RefreshTokenTTL/time.Second), "refresh token ttl (in seconds)")

	fs.StringVar(&config.Environment, "e", config.Environment, "environment")
	fs.StringVar(&config.LoginPath, "l", config.LoginPath, "login path")
	protected := fs.String("p", "", "protected path prefixes, comma separated")
	fs.StringVar(&config.RedisAddr, "redis", config.RedisAddr, "redis address")
	fs.StringVar(&config.LogBackend, "log", config.LogBackend, "log backend (slog|zap)")
	proxies := fs.String("proxies", "", "trusted proxies, comma separated")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// TTLs from earlier layers may carry sub-second parts; only an explicit
	// flag replaces them.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenTTL = time.Duration(*accessTTL) * time.Second
		case "r":
			config.RefreshTokenTTL = time.Duration(*refreshTTL) * time.Second
		}
	})
	if *protected != "" {
		config.ProtectedPaths = flagx.SplitList(*protected)
	}
	if *proxies != "" {
		config.TrustedProxies = flagx.SplitList(*proxies)
	}
	return nil
}

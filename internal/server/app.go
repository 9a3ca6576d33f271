// Package server assembles the shopauth HTTP service: logger, token codecs,
// user store, optional login throttle and the REST server, and runs it
// until a shutdown signal arrives.
package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/shopauth/internal/logging"
	"github.com/dmitrijs2005/shopauth/internal/server/auth"
	"github.com/dmitrijs2005/shopauth/internal/server/config"
	"github.com/dmitrijs2005/shopauth/internal/server/ratelimit"
	"github.com/dmitrijs2005/shopauth/internal/server/rest"
	"github.com/dmitrijs2005/shopauth/internal/server/shared/db"
	"github.com/dmitrijs2005/shopauth/internal/server/users"
	"github.com/redis/go-redis/v9"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	store       db.RepositoryManager
	redis       *redis.Client
	access      *auth.Codec
	userService *users.Service
}

// NewApp wires the application from c. Log output goes to w.
// An unreachable Redis disables throttling instead of failing start-up.
func NewApp(ctx context.Context, c *config.Config, w io.Writer) (*App, error) {
	logger, err := logging.New(c.LogBackend, c.Environment, w)
	if err != nil {
		return nil, err
	}

	access, err := auth.NewCodec([]byte(c.AccessSecret))
	if err != nil {
		return nil, fmt.Errorf("access codec: %w", err)
	}
	refresh, err := auth.NewCodec([]byte(c.RefreshSecret))
	if err != nil {
		return nil, fmt.Errorf("refresh codec: %w", err)
	}

	store, err := db.NewRepositoryManager(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if c.DatabaseDSN == "" {
		logger.Warn(ctx, "no database configured, using in-memory user store")
	}

	app := &App{config: c, logger: logger, store: store, access: access}

	var opts []users.Option
	if c.RedisAddr != "" {
		client, err := ratelimit.NewClient(ctx, c.RedisAddr)
		if err != nil {
			logger.Warn(ctx, "login throttling disabled", "error", err)
		} else {
			app.redis = client
			opts = append(opts, users.WithLimiter(ratelimit.New(client, c.MaxLoginAttempts, c.LoginCooldown)))
		}
	}

	app.userService = users.NewService(store.Users(), access, refresh, c, logger, opts...)
	return app, nil
}

// Users exposes the session service, e.g. for the admin CLI.
func (app *App) Users() *users.Service {
	return app.userService
}

// Close releases the store and the Redis client.
func (app *App) Close() error {
	var err error
	if app.redis != nil {
		err = app.redis.Close()
	}
	if cerr := app.store.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if z, ok := app.logger.(*logging.ZapLogger); ok {
		_ = z.Sync()
	}
	return err
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := rest.NewServer(app.config, app.logger, app.userService, app.access)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves HTTP until ctx is done or a termination signal arrives, then
// closes the app.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.Close(); err != nil {
		app.logger.Error(context.Background(), "close app", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}

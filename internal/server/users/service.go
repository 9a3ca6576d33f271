package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/common"
	"github.com/dmitrijs2005/shopauth/internal/logging"
	"github.com/dmitrijs2005/shopauth/internal/server/auth"
	"github.com/dmitrijs2005/shopauth/internal/server/config"
	"github.com/google/uuid"
)

// LoginLimiter throttles password guessing. Allow returns
// common.ErrRateLimited once the budget for email and ip is spent.
type LoginLimiter interface {
	Allow(ctx context.Context, email, ip string) error
	Fail(ctx context.Context, email, ip string) error
	Reset(ctx context.Context, email, ip string) error
}

// Service provides the session flows:
//   - Register: create users
//   - Login: verify credentials, mint a token pair, store the refresh pointer
//   - Refresh: trade the current refresh token for a new access token
//   - Logout: drop the refresh pointer the caller still holds
//
// Errors returned by Service wrap the sentinels in package common; only
// their common.Kind should reach a client.
type Service struct {
	repo           Repository
	access         *auth.Codec
	refresh        *auth.Codec
	limiter        LoginLimiter
	logger         logging.Logger
	accessTTL      time.Duration
	refreshTTL     time.Duration
	storeTimeout   time.Duration
	revokeOnLogout bool
	hashCost       int
}

// Option customizes a Service.
type Option func(*Service)

// WithLimiter enables login throttling.
func WithLimiter(l LoginLimiter) Option {
	return func(s *Service) {
		s.limiter = l
	}
}

// WithHashCost overrides the bcrypt cost used by Register.
func WithHashCost(cost int) Option {
	return func(s *Service) {
		s.hashCost = cost
	}
}

// NewService wires the flows to a store and the two token codecs. TTLs,
// the store timeout and the logout policy come from cfg.
func NewService(repo Repository, access, refresh *auth.Codec, cfg *config.Config, logger logging.Logger, opts ...Option) *Service {
	s := &Service{
		repo:           repo,
		access:         access,
		refresh:        refresh,
		logger:         logger.With("module", "users"),
		accessTTL:      cfg.AccessTokenTTL,
		refreshTTL:     cfg.RefreshTokenTTL,
		storeTimeout:   cfg.StoreTimeout,
		revokeOnLogout: cfg.RevokeOnLogout,
		hashCost:       auth.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a user with a bcrypt hash of password.
func (s *Service) Register(ctx context.Context, name, email, password string) (*User, error) {
	email = NormalizeEmail(email)
	// display-name and comment forms parse too; only a bare address is stored
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, fmt.Errorf("%w: invalid email", common.ErrBadRequest)
	}
	if password == "" || len(password) > auth.MaxPasswordBytes {
		return nil, fmt.Errorf("%w: password must be 1-%d bytes", common.ErrBadRequest, auth.MaxPasswordBytes)
	}

	hash, err := auth.HashPassword(password, s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", common.ErrorInternal, err)
	}

	user := &User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
	}

	ctx, cancel := s.storeContext(ctx)
	defer cancel()

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrEmailTaken) {
			return nil, err
		}
		return nil, storeError("create user", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", created.ID)
	return created, nil
}

// Login checks email and password and issues a new token pair. The refresh
// token replaces whatever session the user had before. Unknown email and
// wrong password both yield common.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password, clientIP string) (*TokenPair, error) {
	email = NormalizeEmail(email)

	if err := s.allowLogin(ctx, email, clientIP); err != nil {
		return nil, err
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	user, err := s.repo.GetByEmail(storeCtx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			auth.BurnCompare(password)
			s.failLogin(ctx, email, clientIP)
			return nil, fmt.Errorf("%w: unknown email", common.ErrInvalidCredentials)
		}
		return nil, storeError("get user by email", err)
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		s.failLogin(ctx, email, clientIP)
		return nil, fmt.Errorf("%w: password mismatch", common.ErrInvalidCredentials)
	}

	pair, err := s.issue(storeCtx, user.ID)
	if err != nil {
		return nil, err
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, email, clientIP); err != nil {
			s.logger.Warn(ctx, "login limiter reset failed", "error", err)
		}
	}

	s.logger.Info(ctx, "login succeeded", "user_id", user.ID)
	return pair, nil
}

// Refresh returns a new access token for a refresh token that verifies and
// still equals the user's stored pointer. The refresh token itself is not
// rotated.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", common.ErrNoRefreshToken
	}

	userID, err := s.refresh.Verify(refreshToken)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidRefreshToken, err)
	}

	ctx, cancel := s.storeContext(ctx)
	defer cancel()

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", fmt.Errorf("%w: unknown subject", common.ErrInvalidRefreshToken)
		}
		return "", storeError("get user by id", err)
	}

	if !user.HasSession(refreshToken) {
		return "", fmt.Errorf("%w: revoked or replaced", common.ErrInvalidRefreshToken)
	}

	access, err := s.access.Sign(user.ID, s.accessTTL)
	if err != nil {
		return "", fmt.Errorf("%w: sign access token: %v", common.ErrorInternal, err)
	}
	return access, nil
}

// Logout clears the stored refresh pointer when revocation on logout is on
// and refreshToken is still the user's current one. A token that does not
// verify has nothing left to revoke and is ignored.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if !s.revokeOnLogout || refreshToken == "" {
		return nil
	}

	userID, err := s.refresh.Verify(refreshToken)
	if err != nil {
		s.logger.Debug(ctx, "logout with unusable refresh token", "error", err)
		return nil
	}

	ctx, cancel := s.storeContext(ctx)
	defer cancel()

	cleared, err := s.repo.ClearRefreshToken(ctx, userID, refreshToken)
	if err != nil {
		return storeError("clear refresh token", err)
	}
	if cleared {
		s.logger.Info(ctx, "session revoked on logout", "user_id", userID)
	}
	return nil
}

// RevokeSessions drops the user's refresh pointer unconditionally.
func (s *Service) RevokeSessions(ctx context.Context, userID string) error {
	ctx, cancel := s.storeContext(ctx)
	defer cancel()

	if _, err := s.repo.ClearRefreshToken(ctx, userID, ""); err != nil {
		return storeError("clear refresh token", err)
	}
	return nil
}

// Profile returns the user behind a verified access token.
func (s *Service) Profile(ctx context.Context, userID string) (*User, error) {
	ctx, cancel := s.storeContext(ctx)
	defer cancel()

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, storeError("get user by id", err)
	}
	return user, nil
}

// FindByEmail looks a user up by (normalized) email.
func (s *Service) FindByEmail(ctx context.Context, email string) (*User, error) {
	ctx, cancel := s.storeContext(ctx)
	defer cancel()

	user, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, storeError("get user by email", err)
	}
	return user, nil
}

// --- helpers below ---

func (s *Service) issue(ctx context.Context, userID string) (*TokenPair, error) {
	access, err := s.access.Sign(userID, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: sign access token: %v", common.ErrorInternal, err)
	}
	refresh, err := s.refresh.Sign(userID, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: sign refresh token: %v", common.ErrorInternal, err)
	}

	if err := s.repo.SetRefreshToken(ctx, userID, refresh); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: user vanished", common.ErrInvalidCredentials)
		}
		return nil, storeError("set refresh token", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) allowLogin(ctx context.Context, email, ip string) error {
	if s.limiter == nil {
		return nil
	}
	err := s.limiter.Allow(ctx, email, ip)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrRateLimited):
		return err
	default:
		s.logger.Warn(ctx, "login limiter unavailable, allowing attempt", "error", err)
		return nil
	}
}

func (s *Service) failLogin(ctx context.Context, email, ip string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.Fail(ctx, email, ip); err != nil && !errors.Is(err, common.ErrRateLimited) {
		s.logger.Warn(ctx, "login limiter update failed", "error", err)
	}
}

func (s *Service) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.storeTimeout)
}

func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", common.ErrStoreUnavailable, op, err)
}

// NormalizeEmail trims and lower-cases an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

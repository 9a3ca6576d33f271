package users

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/common"
	"github.com/dmitrijs2005/shopauth/internal/logging"
	"github.com/dmitrijs2005/shopauth/internal/server/auth"
	"github.com/dmitrijs2005/shopauth/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	svc     *Service
	repo    *MemoryRepository
	clock   *testClock
	access  *auth.Codec
	refresh *auth.Codec
	cfg     *config.Config
}

func newFixture(t *testing.T, mutate func(*config.Config), opts ...Option) *fixture {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.AccessSecret = "access-secret"
	cfg.RefreshSecret = "refresh-secret"
	if mutate != nil {
		mutate(cfg)
	}

	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	access, err := auth.NewCodec([]byte(cfg.AccessSecret), auth.WithClock(clock.Now))
	require.NoError(t, err)
	refresh, err := auth.NewCodec([]byte(cfg.RefreshSecret), auth.WithClock(clock.Now))
	require.NoError(t, err)

	repo := NewMemoryRepository()
	opts = append([]Option{WithHashCost(bcrypt.MinCost)}, opts...)
	svc := NewService(repo, access, refresh, cfg, logging.NewSlog("test", io.Discard), opts...)

	return &fixture{svc: svc, repo: repo, clock: clock, access: access, refresh: refresh, cfg: cfg}
}

func (f *fixture) register(t *testing.T, email, password string) *User {
	t.Helper()
	u, err := f.svc.Register(context.Background(), "Test User", email, password)
	require.NoError(t, err)
	return u
}

func (f *fixture) storedPointer(t *testing.T, userID string) *string {
	t.Helper()
	u, err := f.repo.GetByID(context.Background(), userID)
	require.NoError(t, err)
	return u.RefreshToken
}

type fakeLimiter struct {
	mu       sync.Mutex
	allowErr error
	fails    int
	resets   int
}

func (l *fakeLimiter) Allow(context.Context, string, string) error {
	return l.allowErr
}

func (l *fakeLimiter) Fail(context.Context, string, string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fails++
	return nil
}

func (l *fakeLimiter) Reset(context.Context, string, string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resets++
	return nil
}

type brokenRepo struct {
	Repository
	err error
}

func (r *brokenRepo) GetByEmail(context.Context, string) (*User, error) { return nil, r.err }
func (r *brokenRepo) GetByID(context.Context, string) (*User, error)    { return nil, r.err }

// --- Register ---

func TestRegister(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	u, err := f.svc.Register(ctx, " Jane ", "  Jane@Example.COM ", "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "Jane", u.Name)
	assert.Equal(t, "jane@example.com", u.Email)
	assert.Nil(t, u.RefreshToken)
	assert.True(t, auth.CheckPassword("secret", u.PasswordHash))

	_, err = f.svc.Register(ctx, "Other", "jane@example.com", "secret2")
	assert.ErrorIs(t, err, common.ErrEmailTaken)
}

func TestRegister_BadInput(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"bad email", "not-an-email", "secret"},
		{"display name", "Bob <bob@example.com>", "secret"},
		{"comment", "bob@example.com (Bob)", "secret"},
		{"angle brackets only", "<bob@example.com>", "secret"},
		{"empty password", "a@example.com", ""},
		{"password too long", "a@example.com", strings.Repeat("x", auth.MaxPasswordBytes+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Register(context.Background(), "n", tt.email, tt.password)
			assert.ErrorIs(t, err, common.ErrBadRequest)
		})
	}
	_, err := f.repo.GetByEmail(context.Background(), "bob <bob@example.com>")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

// --- Login ---

func TestLogin_IssuesPairAndStoresPointer(t *testing.T) {
	f := newFixture(t, nil)
	u := f.register(t, "a@example.com", "pw")

	pair, err := f.svc.Login(context.Background(), "A@example.com", "pw", "10.0.0.1")
	require.NoError(t, err)

	sub, err := f.access.Verify(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, sub)

	sub, err = f.refresh.Verify(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, sub)

	ptr := f.storedPointer(t, u.ID)
	require.NotNil(t, ptr)
	assert.Equal(t, pair.RefreshToken, *ptr)

	// tokens are bound to their own secret
	_, err = f.refresh.Verify(pair.AccessToken)
	assert.Error(t, err)
	_, err = f.access.Verify(pair.RefreshToken)
	assert.Error(t, err)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	f := newFixture(t, nil)
	u := f.register(t, "a@example.com", "pw")

	_, err := f.svc.Login(context.Background(), "a@example.com", "wrong", "")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)

	_, err = f.svc.Login(context.Background(), "nobody@example.com", "pw", "")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	assert.Equal(t, common.KindInvalidCredentials, common.KindOf(err))

	assert.Nil(t, f.storedPointer(t, u.ID))
}

func TestLogin_SecondLoginReplacesSession(t *testing.T) {
	f := newFixture(t, nil)
	u := f.register(t, "a@example.com", "pw")
	ctx := context.Background()

	first, err := f.svc.Login(ctx, "a@example.com", "pw", "")
	require.NoError(t, err)
	second, err := f.svc.Login(ctx, "a@example.com", "pw", "")
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = f.svc.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)

	_, err = f.svc.Refresh(ctx, second.RefreshToken)
	assert.NoError(t, err)
	assert.Equal(t, second.RefreshToken, *f.storedPointer(t, u.ID))
}

func TestLogin_ConcurrentLastWriterWins(t *testing.T) {
	f := newFixture(t, nil)
	u := f.register(t, "a@example.com", "pw")
	ctx := context.Background()

	const n = 8
	tokens := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pair, err := f.svc.Login(ctx, "a@example.com", "pw", "")
			if err == nil {
				tokens[i] = pair.RefreshToken
			}
		}(i)
	}
	wg.Wait()

	ptr := f.storedPointer(t, u.ID)
	require.NotNil(t, ptr)

	valid := 0
	for _, tok := range tokens {
		require.NotEmpty(t, tok)
		if _, err := f.svc.Refresh(ctx, tok); err == nil {
			valid++
			assert.Equal(t, *ptr, tok)
		}
	}
	assert.Equal(t, 1, valid)
}

func TestLogin_Limiter(t *testing.T) {
	t.Run("blocked", func(t *testing.T) {
		lim := &fakeLimiter{allowErr: common.ErrRateLimited}
		f := newFixture(t, nil, WithLimiter(lim))
		f.register(t, "a@example.com", "pw")

		_, err := f.svc.Login(context.Background(), "a@example.com", "pw", "1.2.3.4")
		assert.ErrorIs(t, err, common.ErrRateLimited)
	})

	t.Run("unavailable fails open", func(t *testing.T) {
		lim := &fakeLimiter{allowErr: errors.New("redis down")}
		f := newFixture(t, nil, WithLimiter(lim))
		f.register(t, "a@example.com", "pw")

		_, err := f.svc.Login(context.Background(), "a@example.com", "pw", "1.2.3.4")
		assert.NoError(t, err)
	})

	t.Run("counts failures and resets on success", func(t *testing.T) {
		lim := &fakeLimiter{}
		f := newFixture(t, nil, WithLimiter(lim))
		f.register(t, "a@example.com", "pw")
		ctx := context.Background()

		_, err := f.svc.Login(ctx, "a@example.com", "bad", "")
		require.Error(t, err)
		_, err = f.svc.Login(ctx, "ghost@example.com", "bad", "")
		require.Error(t, err)
		_, err = f.svc.Login(ctx, "a@example.com", "pw", "")
		require.NoError(t, err)

		assert.Equal(t, 2, lim.fails)
		assert.Equal(t, 1, lim.resets)
	})
}

func TestLogin_StoreUnavailable(t *testing.T) {
	f := newFixture(t, nil)
	f.svc.repo = &brokenRepo{err: errors.New("connection refused")}

	_, err := f.svc.Login(context.Background(), "a@example.com", "pw", "")
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.Equal(t, common.KindStoreUnavailable, common.KindOf(err))
}

// --- Refresh ---

func TestRefresh(t *testing.T) {
	f := newFixture(t, nil)
	u := f.register(t, "a@example.com", "pw")
	ctx := context.Background()

	pair, err := f.svc.Login(ctx, "a@example.com", "pw", "")
	require.NoError(t, err)

	f.clock.Advance(f.cfg.AccessTokenTTL)
	_, err = f.access.Verify(pair.AccessToken)
	require.ErrorIs(t, err, common.ErrTokenExpired)

	access, err := f.svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	sub, err := f.access.Verify(access)
	require.NoError(t, err)
	assert.Equal(t, u.ID, sub)

	// the refresh token is not rotated
	assert.Equal(t, pair.RefreshToken, *f.storedPointer(t, u.ID))
	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	assert.NoError(t, err)
}

func TestRefresh_Rejections(t *testing.T) {
	f := newFixture(t, nil)
	f.register(t, "a@example.com", "pw")
	ctx := context.Background()

	pair, err := f.svc.Login(ctx, "a@example.com", "pw", "")
	require.NoError(t, err)

	_, err = f.svc.Refresh(ctx, "")
	assert.ErrorIs(t, err, common.ErrNoRefreshToken)

	_, err = f.svc.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)

	_, err = f.svc.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)

	ghost, err := f.refresh.Sign("no-such-user", time.Hour)
	require.NoError(t, err)
	_, err = f.svc.Refresh(ctx, ghost)
	assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)

	f.clock.Advance(f.cfg.RefreshTokenTTL)
	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)
}

func TestRefresh_StoreUnavailable(t *testing.T) {
	f := newFixture(t, nil)
	tok, err := f.refresh.Sign("u1", time.Hour)
	require.NoError(t, err)

	f.svc.repo = &brokenRepo{err: errors.New("timeout")}
	_, err = f.svc.Refresh(context.Background(), tok)
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
}

// --- Logout ---

func TestLogout_RevokesCurrentSession(t *testing.T) {
	f := newFixture(t, nil)
	u := f.register(t, "a@example.com", "pw")
	ctx := context.Background()

	pair, err := f.svc.Login(ctx, "a@example.com", "pw", "")
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, pair.RefreshToken))
	assert.Nil(t, f.storedPointer(t, u.ID))

	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)
}

func TestLogout_StaleTokenKeepsNewerSession(t *testing.T) {
	f := newFixture(t, nil)
	u := f.register(t, "a@example.com", "pw")
	ctx := context.Background()

	old, err := f.svc.Login(ctx, "a@example.com", "pw", "")
	require.NoError(t, err)
	current, err := f.svc.Login(ctx, "a@example.com", "pw", "")
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, old.RefreshToken))
	assert.Equal(t, current.RefreshToken, *f.storedPointer(t, u.ID))
}

func TestLogout_NoRevocation(t *testing.T) {
	f := newFixture(t, func(c *config.Config) { c.RevokeOnLogout = false })
	u := f.register(t, "a@example.com", "pw")
	ctx := context.Background()

	pair, err := f.svc.Login(ctx, "a@example.com", "pw", "")
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, pair.RefreshToken))
	assert.Equal(t, pair.RefreshToken, *f.storedPointer(t, u.ID))
}

func TestLogout_IgnoresUnusableTokens(t *testing.T) {
	f := newFixture(t, nil)
	assert.NoError(t, f.svc.Logout(context.Background(), ""))
	assert.NoError(t, f.svc.Logout(context.Background(), "garbage"))
}

// --- misc ---

func TestRevokeSessions(t *testing.T) {
	f := newFixture(t, nil)
	u := f.register(t, "a@example.com", "pw")
	ctx := context.Background()

	pair, err := f.svc.Login(ctx, "a@example.com", "pw", "")
	require.NoError(t, err)

	require.NoError(t, f.svc.RevokeSessions(ctx, u.ID))
	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)
}

func TestProfileAndFindByEmail(t *testing.T) {
	f := newFixture(t, nil)
	u := f.register(t, "a@example.com", "pw")
	ctx := context.Background()

	got, err := f.svc.Profile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)

	got, err = f.svc.FindByEmail(ctx, " A@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = f.svc.Profile(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@b.c", NormalizeEmail("  A@B.C\t"))
}

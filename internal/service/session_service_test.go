package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/token-authority/internal/auth"
	"github.com/spec-kit/token-authority/internal/domain"
	"github.com/spec-kit/token-authority/internal/events"
	"github.com/spec-kit/token-authority/internal/observability"
	"github.com/spec-kit/token-authority/internal/repository"
)

const serviceTestSecret = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

type serviceFixture struct {
	service *SessionService
	clock   *clockwork.FakeClock
	redis   *miniredis.Miniredis
	seen    *[]events.Event
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clock := clockwork.NewFakeClockAt(time.UnixMilli(1_700_000_000_000))
	authority, err := auth.NewAuthority(auth.Config{
		Secret:     []byte(serviceTestSecret),
		AccessTTL:  time.Hour,
		RefreshTTL: 14 * 24 * time.Hour,
		ReducedTTL: 10 * time.Minute,
	}, repository.NewSessionRegistry(client), clock)
	require.NoError(t, err)

	dispatcher := events.NewInMemoryDispatcher()
	seen := &[]events.Event{}
	record := func(_ context.Context, event events.Event) error {
		*seen = append(*seen, event)
		return nil
	}
	dispatcher.Subscribe(events.EventSessionIssued, record)
	dispatcher.Subscribe(events.EventSessionRefreshed, record)
	dispatcher.Subscribe(events.EventSessionRevoked, record)

	return &serviceFixture{
		service: NewSessionService(authority, dispatcher, observability.NewMetrics()),
		clock:   clock,
		redis:   mr,
		seen:    seen,
	}
}

func TestIssueSession(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	pair, err := fx.service.IssueSession(ctx, domain.Identity{
		Username:  "alice",
		Authority: "USER",
		Verified:  true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, fx.clock.Now().Add(time.Hour).Unix(), pair.AccessExpiresAt.Unix())
	assert.Equal(t, fx.clock.Now().Add(14*24*time.Hour).Unix(), pair.RefreshExpiresAt.Unix())

	ok, err := fx.service.Authority().ValidateAccess(ctx, pair.AccessToken, "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	require.Len(t, *fx.seen, 1)
	assert.Equal(t, events.EventSessionIssued, (*fx.seen)[0].Type)
	assert.Equal(t, "alice", (*fx.seen)[0].Username)
}

func TestIssueSessionDeletedAccount(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	pair, err := fx.service.IssueSession(ctx, domain.Identity{
		Username:  "dan",
		Authority: "USER",
		Verified:  true,
		Deleted:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, 10*time.Minute, fx.redis.TTL("access:dan"))
	assert.Equal(t, 10*time.Minute, fx.redis.TTL("refresh:dan"))
	assert.True(t, fx.service.Authority().IsDeletedAccount(pair.AccessToken))
}

func TestRefreshSession(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	pair, err := fx.service.IssueSession(ctx, domain.Identity{
		Username:  "eve",
		Authority: "USER",
		Verified:  true,
	})
	require.NoError(t, err)

	fx.clock.Advance(time.Minute)

	accessToken, expiresAt, err := fx.service.RefreshSession(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, accessToken)
	assert.Equal(t, fx.clock.Now().Add(time.Hour).Unix(), expiresAt.Unix())

	// The refreshed token is now the current one.
	ok, err := fx.service.Authority().ValidateAccess(ctx, accessToken, "eve")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = fx.service.Authority().ValidateAccess(ctx, pair.AccessToken, "eve")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRefreshSessionCarriesDeletedFlag(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	pair, err := fx.service.IssueSession(ctx, domain.Identity{
		Username:  "dan",
		Authority: "USER",
		Verified:  true,
		Deleted:   true,
	})
	require.NoError(t, err)

	fx.clock.Advance(time.Minute)

	accessToken, _, err := fx.service.RefreshSession(ctx, pair.RefreshToken)
	require.NoError(t, err)

	assert.True(t, fx.service.Authority().IsDeletedAccount(accessToken))
	assert.Equal(t, 10*time.Minute, fx.redis.TTL("access:dan"))
}

func TestRefreshSessionRejectsUnknownToken(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	_, _, err := fx.service.RefreshSession(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefreshSessionRejectsStaleToken(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	pair, err := fx.service.IssueSession(ctx, domain.Identity{
		Username:  "eve",
		Authority: "USER",
		Verified:  true,
	})
	require.NoError(t, err)

	// A second issuance replaces the stored refresh token.
	fx.clock.Advance(time.Second)
	_, err = fx.service.IssueSession(ctx, domain.Identity{
		Username:  "eve",
		Authority: "USER",
		Verified:  true,
	})
	require.NoError(t, err)

	_, _, err = fx.service.RefreshSession(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestLogout(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	pair, err := fx.service.IssueSession(ctx, domain.Identity{
		Username:  "bob",
		Authority: "USER",
		Verified:  true,
	})
	require.NoError(t, err)

	fx.clock.Advance(time.Second)
	require.NoError(t, fx.service.Logout(ctx, pair.AccessToken))

	ok, err := fx.service.Authority().ValidateAccess(ctx, pair.AccessToken, "bob")
	require.NoError(t, err)
	assert.False(t, ok)

	blacklisted, err := fx.service.Authority().IsBlacklisted(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.True(t, blacklisted)

	last := (*fx.seen)[len(*fx.seen)-1]
	assert.Equal(t, events.EventSessionRevoked, last.Type)
	assert.Equal(t, "bob", last.Username)
}

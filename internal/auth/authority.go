package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/spec-kit/token-authority/internal/repository"
)

// DefaultReducedTTL caps the lifetime of tokens minted for soft-deleted
// accounts.
const DefaultReducedTTL = 10 * time.Minute

// Config holds the validated parameters of the token authority.
type Config struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	ReducedTTL time.Duration
}

// Validate rejects configurations the authority cannot operate with.
func (c Config) Validate() error {
	if len(c.Secret) == 0 {
		return errors.New("auth: secret must not be empty")
	}
	if c.AccessTTL <= 0 {
		return errors.New("auth: access TTL must be positive")
	}
	if c.RefreshTTL <= 0 {
		return errors.New("auth: refresh TTL must be positive")
	}
	if c.ReducedTTL < 0 {
		return errors.New("auth: reduced TTL must not be negative")
	}
	return nil
}

// Authority mints, validates, and revokes signed bearer tokens. It holds no
// mutable state of its own; all session state lives in the registry, so a
// single instance is safe for concurrent use.
type Authority struct {
	signer   *Signer
	registry repository.SessionRegistry
	clock    clockwork.Clock
	cfg      Config
}

// NewAuthority validates the config and assembles the authority.
func NewAuthority(cfg Config, registry repository.SessionRegistry, clock clockwork.Clock) (*Authority, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.ReducedTTL == 0 {
		cfg.ReducedTTL = DefaultReducedTTL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Authority{
		signer:   NewSigner(cfg.Secret, clock),
		registry: registry,
		clock:    clock,
		cfg:      cfg,
	}, nil
}

// IssueAccess mints an access token and records it as the user's current
// one. The previous access token, if any, stops validating.
func (a *Authority) IssueAccess(ctx context.Context, username, authority string, verified bool) (string, error) {
	return a.issue(ctx, username, authority, verified, false, a.cfg.AccessTTL, a.registry.PutAccess)
}

// IssueAccessForDeleted mints an access token for a soft-deleted account.
// The deleted claim is set and the lifetime is capped at the reduced TTL.
func (a *Authority) IssueAccessForDeleted(ctx context.Context, username, authority string, verified bool) (string, error) {
	return a.issue(ctx, username, authority, verified, true, a.cfg.AccessTTL, a.registry.PutAccess)
}

// IssueRefresh mints a refresh token and records it as the user's current
// one.
func (a *Authority) IssueRefresh(ctx context.Context, username, authority string, verified bool) (string, error) {
	return a.issue(ctx, username, authority, verified, false, a.cfg.RefreshTTL, a.registry.PutRefresh)
}

// IssueRefreshForDeleted mints a refresh token for a soft-deleted account
// with the reduced lifetime.
func (a *Authority) IssueRefreshForDeleted(ctx context.Context, username, authority string, verified bool) (string, error) {
	return a.issue(ctx, username, authority, verified, true, a.cfg.RefreshTTL, a.registry.PutRefresh)
}

type putFunc func(ctx context.Context, username, token string, ttl time.Duration) error

func (a *Authority) issue(ctx context.Context, username, authority string, verified, deleted bool, ttl time.Duration, put putFunc) (string, error) {
	if deleted && ttl > a.cfg.ReducedTTL {
		ttl = a.cfg.ReducedTTL
	}

	claims := NewClaims(username, authority, verified, deleted, a.clock.Now(), ttl)
	token, err := a.signer.Sign(claims)
	if err != nil {
		return "", err
	}

	// The token must not leave the authority unless its session entry
	// persisted.
	if err := put(ctx, username, token, ttl); err != nil {
		return "", a.registryError(err)
	}
	return token, nil
}

// ValidateAccess reports whether token is an acceptable access token for
// expectedUser. All authentication failures collapse into false; a non-nil
// error is returned only when the registry cannot be reached, so callers
// can answer 5xx instead of 401.
func (a *Authority) ValidateAccess(ctx context.Context, token, expectedUser string) (bool, error) {
	return collapse(a.checkAccess(ctx, token, expectedUser))
}

// checkAccess runs the full access check and keeps the failure kind: parse
// errors from the signer, ErrTokenBlacklisted for revoked tokens, and
// ErrTokenNotCurrent when the token is not the one on record for the user.
func (a *Authority) checkAccess(ctx context.Context, token, expectedUser string) error {
	claims, err := a.signer.Parse(token)
	if err != nil {
		return err
	}
	if claims.Username() != expectedUser {
		return ErrTokenNotCurrent
	}

	blacklisted, err := a.registry.IsBlacklisted(ctx, token)
	if err != nil {
		return a.registryError(err)
	}
	if blacklisted {
		return ErrTokenBlacklisted
	}

	stored, err := a.registry.GetAccess(ctx, expectedUser)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTokenNotCurrent
	}
	if err != nil {
		return a.registryError(err)
	}
	if stored != token {
		return ErrTokenNotCurrent
	}
	return nil
}

// ValidateRefresh reports whether presented is the current refresh token
// for the user. Expiry is enforced indirectly: the registry entry carries
// the same TTL as the token and disappears with it.
func (a *Authority) ValidateRefresh(ctx context.Context, username, presented string) (bool, error) {
	return collapse(a.checkRefresh(ctx, username, presented))
}

func (a *Authority) checkRefresh(ctx context.Context, username, presented string) error {
	if _, err := a.signer.Parse(presented); err != nil {
		return err
	}

	stored, err := a.registry.GetRefresh(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTokenNotCurrent
	}
	if err != nil {
		return a.registryError(err)
	}
	if stored != presented {
		return ErrTokenNotCurrent
	}
	return nil
}

// Revoke blacklists the token for its remaining lifetime and drops the
// subject's current access entry. A token already past its expiry is a
// no-op. The refresh entry is left in place.
func (a *Authority) Revoke(ctx context.Context, token string) error {
	claims, err := a.signer.Decode(token)
	if err != nil {
		return err
	}

	ttl := claims.ExpiresAt.Time.Sub(a.clock.Now())
	if ttl <= 0 {
		return nil
	}

	if err := a.registry.AddToBlacklist(ctx, token, ttl); err != nil {
		return a.registryError(err)
	}
	if err := a.registry.DeleteAccess(ctx, claims.Username()); err != nil {
		return a.registryError(err)
	}
	return nil
}

// IsBlacklisted reports whether the token has been revoked.
func (a *Authority) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	blacklisted, err := a.registry.IsBlacklisted(ctx, token)
	if err != nil {
		return false, a.registryError(err)
	}
	return blacklisted, nil
}

// Extract decodes the claims of a signed token without consulting the
// registry.
func (a *Authority) Extract(token string) (*Claims, error) {
	return a.signer.Parse(token)
}

// IsDeletedAccount reports whether the token was minted for a soft-deleted
// account. Any decoding failure yields false.
func (a *Authority) IsDeletedAccount(token string) bool {
	claims, err := a.signer.Parse(token)
	if err != nil {
		return false
	}
	return claims.Deleted
}

// CurrentAccess returns the access token currently on record for the user.
func (a *Authority) CurrentAccess(ctx context.Context, username string) (string, error) {
	token, err := a.registry.GetAccess(ctx, username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "", a.registryError(err)
	}
	return token, err
}

// CurrentRefresh returns the refresh token currently on record for the
// user.
func (a *Authority) CurrentRefresh(ctx context.Context, username string) (string, error) {
	token, err := a.registry.GetRefresh(ctx, username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "", a.registryError(err)
	}
	return token, err
}

// RefreshTTL exposes the configured refresh lifetime, used by the HTTP
// layer for cookie max-age.
func (a *Authority) RefreshTTL() time.Duration {
	return a.cfg.RefreshTTL
}

func (a *Authority) registryError(err error) error {
	return fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
}

// collapse folds a check result into the boolean contract of the public
// Validate methods. Only registry outages stay visible as errors.
func collapse(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrRegistryUnavailable) {
		return false, err
	}
	return false, nil
}

package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/token-authority/internal/auth"
	"github.com/spec-kit/token-authority/internal/domain"
	"github.com/spec-kit/token-authority/internal/events"
	"github.com/spec-kit/token-authority/internal/observability"
)

// ErrInvalidRefreshToken is returned when a refresh token fails validation
// against the registry.
var ErrInvalidRefreshToken = errors.New("invalid refresh token")

// SessionService coordinates issuance, refresh, and logout flows around the
// token authority, publishing lifecycle events as it goes.
type SessionService struct {
	authority  *auth.Authority
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
}

// NewSessionService builds the service.
func NewSessionService(authority *auth.Authority, dispatcher events.Dispatcher, metrics *observability.Metrics) *SessionService {
	return &SessionService{
		authority:  authority,
		dispatcher: dispatcher,
		metrics:    metrics,
	}
}

// IssueSession mints an access and refresh token pair for an identity the
// upstream has already authenticated.
func (s *SessionService) IssueSession(ctx context.Context, identity domain.Identity) (*domain.TokenPair, error) {
	accessToken, err := s.issueAccess(ctx, identity)
	if err != nil {
		s.metrics.RecordTokenOp("issue_access", "error")
		return nil, err
	}
	s.metrics.RecordTokenOp("issue_access", "ok")

	refreshToken, err := s.issueRefresh(ctx, identity)
	if err != nil {
		s.metrics.RecordTokenOp("issue_refresh", "error")
		return nil, err
	}
	s.metrics.RecordTokenOp("issue_refresh", "ok")

	pair := &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}
	if claims, err := s.authority.Extract(accessToken); err == nil {
		pair.AccessExpiresAt = claims.ExpiresAt.Time
	}
	if claims, err := s.authority.Extract(refreshToken); err == nil {
		pair.RefreshExpiresAt = claims.ExpiresAt.Time
	}

	s.publish(ctx, events.EventSessionIssued, identity.Username, events.SessionIssuedPayload{
		Authority: identity.Authority,
		Verified:  identity.Verified,
		Deleted:   identity.Deleted,
	})
	return pair, nil
}

// RefreshSession validates a refresh token and mints a fresh access token
// for its subject. The deleted flag carries over, so deleted accounts keep
// the reduced lifetime across refreshes.
func (s *SessionService) RefreshSession(ctx context.Context, refreshToken string) (string, time.Time, error) {
	claims, err := s.authority.Extract(refreshToken)
	if err != nil {
		s.metrics.RecordTokenOp("refresh", "rejected")
		return "", time.Time{}, ErrInvalidRefreshToken
	}

	ok, err := s.authority.ValidateRefresh(ctx, claims.Username(), refreshToken)
	if err != nil {
		s.metrics.RecordTokenOp("refresh", "error")
		return "", time.Time{}, err
	}
	if !ok {
		s.metrics.RecordTokenOp("refresh", "rejected")
		return "", time.Time{}, ErrInvalidRefreshToken
	}

	identity := domain.Identity{
		Username:  claims.Username(),
		Authority: claims.Authority,
		Verified:  claims.Verified,
		Deleted:   s.authority.IsDeletedAccount(refreshToken),
	}

	accessToken, err := s.issueAccess(ctx, identity)
	if err != nil {
		s.metrics.RecordTokenOp("refresh", "error")
		return "", time.Time{}, err
	}
	s.metrics.RecordTokenOp("refresh", "ok")

	expiresAt := time.Time{}
	if accessClaims, err := s.authority.Extract(accessToken); err == nil {
		expiresAt = accessClaims.ExpiresAt.Time
	}

	s.publish(ctx, events.EventSessionRefreshed, identity.Username, events.SessionRefreshedPayload{
		Deleted: identity.Deleted,
	})
	return accessToken, expiresAt, nil
}

// Logout revokes the presented access token.
func (s *SessionService) Logout(ctx context.Context, accessToken string) error {
	if err := s.authority.Revoke(ctx, accessToken); err != nil {
		s.metrics.RecordTokenOp("revoke", "error")
		return err
	}
	s.metrics.RecordTokenOp("revoke", "ok")

	username := ""
	if claims, err := s.authority.Extract(accessToken); err == nil {
		username = claims.Username()
	}
	s.publish(ctx, events.EventSessionRevoked, username, events.SessionRevokedPayload{
		Reason: "logout",
	})
	return nil
}

// Authority exposes the underlying token authority for middleware usage.
func (s *SessionService) Authority() *auth.Authority {
	return s.authority
}

func (s *SessionService) issueAccess(ctx context.Context, identity domain.Identity) (string, error) {
	if identity.Deleted {
		return s.authority.IssueAccessForDeleted(ctx, identity.Username, identity.Authority, identity.Verified)
	}
	return s.authority.IssueAccess(ctx, identity.Username, identity.Authority, identity.Verified)
}

func (s *SessionService) issueRefresh(ctx context.Context, identity domain.Identity) (string, error) {
	if identity.Deleted {
		return s.authority.IssueRefreshForDeleted(ctx, identity.Username, identity.Authority, identity.Verified)
	}
	return s.authority.IssueRefresh(ctx, identity.Username, identity.Authority, identity.Verified)
}

func (s *SessionService) publish(ctx context.Context, eventType events.EventType, username string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Username:  username,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

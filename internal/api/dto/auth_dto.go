package dto

import "time"

// SessionRequest payload for minting a session. The caller is a trusted
// upstream that has already verified credentials.
type SessionRequest struct {
	Username  string `json:"username"`
	Authority string `json:"authority"`
	Verified  bool   `json:"verified"`
	Deleted   bool   `json:"deleted"`
}

// RefreshRequest payload for exchanging a refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenPairResponse carries a freshly minted session.
type TokenPairResponse struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// AccessTokenResponse carries a refreshed access token.
type AccessTokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

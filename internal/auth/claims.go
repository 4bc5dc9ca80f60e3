package auth

import (
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Claims is the payload carried inside every issued token.
//
// The deleted claim is only written for tokens minted on behalf of
// soft-deleted accounts; a token without the claim is treated as
// deleted=false on decode.
type Claims struct {
	Authority string `json:"authority"`
	Verified  bool   `json:"verified"`
	Deleted   bool   `json:"deleted,omitempty"`
	jwt.RegisteredClaims
}

// NewClaims builds the claim set for a token issued at issuedAt with the
// given lifetime.
func NewClaims(username, authority string, verified, deleted bool, issuedAt time.Time, ttl time.Duration) *Claims {
	return &Claims{
		Authority: authority,
		Verified:  verified,
		Deleted:   deleted,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
	}
}

// Username returns the token subject.
func (c *Claims) Username() string {
	return c.Subject
}

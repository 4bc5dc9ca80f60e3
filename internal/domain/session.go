package domain

import "time"

// TokenKind distinguishes the two registry namespaces.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// TokenPair is the result of a successful session issuance.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Identity carries the caller attributes stamped into issued tokens.
// Credential verification happens upstream; the authority trusts these
// values as given.
type Identity struct {
	Username  string
	Authority string
	Verified  bool
	Deleted   bool
}

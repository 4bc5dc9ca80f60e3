package auth

import (
	"encoding/json"
	"errors"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
)

// Signer signs and verifies token envelopes with HMAC-SHA-512 under a
// single symmetric secret. The envelope is the standard three-part
// base64url form <header>.<payload>.<mac>.
type Signer struct {
	secret []byte
	clock  clockwork.Clock
}

// NewSigner builds a signer around the shared secret.
func NewSigner(secret []byte, clock clockwork.Clock) *Signer {
	return &Signer{secret: secret, clock: clock}
}

// Sign produces a signed envelope for the claim set.
func (s *Signer) Sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Parse verifies the envelope signature and claim validity, including
// expiry against the injected clock.
func (s *Signer) Parse(tokenStr string) (*Claims, error) {
	return s.parse(tokenStr, false)
}

// Decode verifies the envelope signature but skips claim validation, so
// claims of an already-expired token remain readable. Revocation needs
// this to compute the remaining lifetime.
func (s *Signer) Decode(tokenStr string) (*Claims, error) {
	return s.parse(tokenStr, true)
}

func (s *Signer) parse(tokenStr string, skipClaimsValidation bool) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
	}
	if skipClaimsValidation {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	parsed, err := jwt.NewParser(opts...).ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS512 {
			return nil, ErrInvalidSignature
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, classifyParseError(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, ErrMalformedClaims
	}
	return claims, nil
}

// classifyParseError maps golang-jwt errors onto the internal taxonomy.
func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		// A structurally sound envelope whose payload has wrong claim types
		// is a claims problem, not an envelope problem.
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return ErrMalformedClaims
		}
		return ErrMalformedEnvelope
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrInvalidSignature
	default:
		return ErrMalformedClaims
	}
}

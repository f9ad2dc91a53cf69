package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"

	"github.com/platefeed/api/internal/domain"
)

var (
	// ErrTokenExpired signals that the session token has expired.
	ErrTokenExpired = errors.New("auth: session token expired")
	// ErrTokenInvalid signals that the session token failed verification.
	ErrTokenInvalid = errors.New("auth: session token invalid")
)

// sessionClaims mirrors the payload the external auth service signs into
// session cookies: subject carries the principal id, role the principal kind.
type sessionClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// SessionVerifier validates HS256 session tokens minted by the auth service.
type SessionVerifier struct {
	secret []byte
}

// NewSessionVerifier constructs a SessionVerifier for the shared signing key.
func NewSessionVerifier(secret string) (*SessionVerifier, error) {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		return nil, errors.New("auth: session secret is required")
	}
	return &SessionVerifier{secret: []byte(trimmed)}, nil
}

// Verify parses and validates the token, returning the embedded principal.
// fallbackRole applies when the token predates the role claim; the cookie the
// token arrived in determines it.
func (v *SessionVerifier) Verify(token string, fallbackRole domain.Role) (domain.Principal, error) {
	if v == nil || len(v.secret) == 0 {
		return domain.Principal{}, errors.New("auth: session verifier not initialised")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Principal{}, ErrTokenInvalid
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Principal{}, ErrTokenExpired
		}
		return domain.Principal{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !parsed.Valid {
		return domain.Principal{}, ErrTokenInvalid
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return domain.Principal{}, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}

	role := fallbackRole
	switch strings.ToLower(strings.TrimSpace(claims.Role)) {
	case string(domain.RoleUser):
		role = domain.RoleUser
	case string(domain.RolePartner):
		role = domain.RolePartner
	}

	return domain.Principal{ID: subject, Role: role}, nil
}

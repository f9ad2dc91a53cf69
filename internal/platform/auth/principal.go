package auth

import (
	"context"

	"github.com/platefeed/api/internal/domain"
)

type contextKey string

const principalContextKey contextKey = "github.com/platefeed/api/internal/platform/auth/principal"

// WithPrincipal stores the resolved principal within the context.
func WithPrincipal(ctx context.Context, principal domain.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext retrieves the principal previously stored in context.
// The second return is false when no authentication middleware ran, which
// callers must treat the same as an anonymous principal.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(domain.Principal)
	if !ok {
		return domain.Principal{}, false
	}
	return principal, true
}

package auth

import (
	"net/http"
	"strings"

	"github.com/platefeed/api/internal/domain"
	"github.com/platefeed/api/internal/platform/httpx"
)

const bearerPrefix = "Bearer "

// Authenticator resolves the principal for incoming requests. Session cookies
// are the primary scheme (user and partner cookies carry separate audiences);
// a Firebase ID token in the Authorization header is accepted as the bearer
// path for mobile clients. The authenticator never issues credentials.
type Authenticator struct {
	sessions      *SessionVerifier
	firebase      TokenVerifier
	userCookie    string
	partnerCookie string
}

// AuthenticatorOption customises Authenticator behaviour.
type AuthenticatorOption func(*Authenticator)

// WithFirebaseFallback enables bearer-token verification via Firebase.
func WithFirebaseFallback(verifier TokenVerifier) AuthenticatorOption {
	return func(a *Authenticator) {
		a.firebase = verifier
	}
}

// WithCookieNames overrides the session cookie names.
func WithCookieNames(user, partner string) AuthenticatorOption {
	return func(a *Authenticator) {
		if strings.TrimSpace(user) != "" {
			a.userCookie = strings.TrimSpace(user)
		}
		if strings.TrimSpace(partner) != "" {
			a.partnerCookie = strings.TrimSpace(partner)
		}
	}
}

// NewAuthenticator constructs an Authenticator over the session verifier.
func NewAuthenticator(sessions *SessionVerifier, opts ...AuthenticatorOption) *Authenticator {
	a := &Authenticator{
		sessions:      sessions,
		userCookie:    "pf_user_token",
		partnerCookie: "pf_partner_token",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Require rejects requests whose principal is absent or whose role is not in
// the allowed set. With no roles given, any authenticated principal passes.
func (a *Authenticator) Require(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := a.resolve(r)
			if !ok {
				httpx.WriteError(r.Context(), w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
				return
			}
			if len(roles) > 0 && !roleAllowed(principal.Role, roles) {
				httpx.WriteError(r.Context(), w, httpx.NewError("forbidden", "insufficient role", http.StatusForbidden))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// Optional resolves the principal when credentials are present and lets the
// request through as anonymous otherwise.
func (a *Authenticator) Optional() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if principal, ok := a.resolve(r); ok {
				r = r.WithContext(WithPrincipal(r.Context(), principal))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (a *Authenticator) resolve(r *http.Request) (domain.Principal, bool) {
	if a == nil || a.sessions == nil {
		return domain.Principal{}, false
	}

	if cookie, err := r.Cookie(a.partnerCookie); err == nil {
		if principal, err := a.sessions.Verify(cookie.Value, domain.RolePartner); err == nil {
			return principal, true
		}
	}
	if cookie, err := r.Cookie(a.userCookie); err == nil {
		if principal, err := a.sessions.Verify(cookie.Value, domain.RoleUser); err == nil {
			return principal, true
		}
	}

	if a.firebase != nil {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if strings.HasPrefix(header, bearerPrefix) {
			token, err := a.firebase.VerifyIDToken(r.Context(), strings.TrimSpace(header[len(bearerPrefix):]))
			if err == nil && token != nil && token.UID != "" {
				return domain.Principal{ID: token.UID, Role: firebaseRole(token.Claims)}, true
			}
		}
	}

	return domain.Principal{}, false
}

func firebaseRole(claims map[string]any) domain.Role {
	if raw, ok := claims["role"].(string); ok {
		if strings.EqualFold(strings.TrimSpace(raw), string(domain.RolePartner)) {
			return domain.RolePartner
		}
	}
	return domain.RoleUser
}

func roleAllowed(role domain.Role, allowed []domain.Role) bool {
	for _, candidate := range allowed {
		if candidate == role {
			return true
		}
	}
	return false
}

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/platefeed/api/internal/domain"
)

const testSecret = "test-signing-secret"

func signSession(t *testing.T, subject, role string, expires time.Time) string {
	t.Helper()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Role: role,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign session token: %v", err)
	}
	return token
}

func newTestAuthenticator(t *testing.T) *Authenticator {
	t.Helper()
	sessions, err := NewSessionVerifier(testSecret)
	if err != nil {
		t.Fatalf("new session verifier: %v", err)
	}
	return NewAuthenticator(sessions)
}

func principalEcho(t *testing.T, captured *domain.Principal) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if principal, ok := PrincipalFromContext(r.Context()); ok {
			*captured = principal
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireRejectsMissingCredentials(t *testing.T) {
	authn := newTestAuthenticator(t)
	var captured domain.Principal
	handler := authn.Require(domain.RoleUser)(principalEcho(t, &captured))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireResolvesUserCookie(t *testing.T) {
	authn := newTestAuthenticator(t)
	var captured domain.Principal
	handler := authn.Require(domain.RoleUser)(principalEcho(t, &captured))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{
		Name:  "pf_user_token",
		Value: signSession(t, "user-1", "user", time.Now().Add(time.Hour)),
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.ID != "user-1" || captured.Role != domain.RoleUser {
		t.Fatalf("unexpected principal %+v", captured)
	}
}

func TestRequireRejectsWrongRole(t *testing.T) {
	authn := newTestAuthenticator(t)
	var captured domain.Principal
	handler := authn.Require(domain.RolePartner)(principalEcho(t, &captured))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{
		Name:  "pf_user_token",
		Value: signSession(t, "user-1", "user", time.Now().Add(time.Hour)),
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRequireRejectsExpiredToken(t *testing.T) {
	authn := newTestAuthenticator(t)
	var captured domain.Principal
	handler := authn.Require()(principalEcho(t, &captured))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{
		Name:  "pf_user_token",
		Value: signSession(t, "user-1", "user", time.Now().Add(-time.Hour)),
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", rec.Code)
	}
}

func TestOptionalAdmitsAnonymous(t *testing.T) {
	authn := newTestAuthenticator(t)
	var captured domain.Principal
	handler := authn.Optional()(principalEcho(t, &captured))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !captured.IsAnonymous() {
		t.Fatalf("expected anonymous principal, got %+v", captured)
	}
}

func TestPartnerCookieTakesPartnerRole(t *testing.T) {
	authn := newTestAuthenticator(t)
	var captured domain.Principal
	handler := authn.Require(domain.RolePartner)(principalEcho(t, &captured))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{
		Name:  "pf_partner_token",
		Value: signSession(t, "partner-9", "", time.Now().Add(time.Hour)),
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.ID != "partner-9" || captured.Role != domain.RolePartner {
		t.Fatalf("unexpected principal %+v", captured)
	}
}

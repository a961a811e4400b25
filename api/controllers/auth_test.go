package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/solecart-backend/api/middleware"
	"github.com/angelmondragon/solecart-backend/internal/auth"
	"github.com/angelmondragon/solecart-backend/internal/users"
	"github.com/angelmondragon/solecart-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/solecart-backend/pkg/errors"
	"github.com/google/uuid"
)

func sampleSession() *auth.Session {
	return &auth.Session{
		AccessToken:  "access-jwt",
		RefreshToken: "refresh-token",
		User: &users.UserDTO{
			ID:       uuid.New(),
			Email:    "shopper@example.com",
			Provider: enums.AuthProviderLocal,
		},
	}
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return payload
}

func expectStatus(t *testing.T, resp *httptest.ResponseRecorder, want int) {
	t.Helper()
	if resp.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, resp.Code, resp.Body.String())
	}
}

func expectField(t *testing.T, payload map[string]any, key string, want any) {
	t.Helper()
	if payload[key] != want {
		t.Fatalf("expected %s=%v, got %v", key, want, payload[key])
	}
}

func TestAuthRegisterSuccess(t *testing.T) {
	svc := &stubAuthService{session: sampleSession()}
	body := `{"email":"shopper@example.com","password":"secret1","displayName":"Shopper"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	resp := httptest.NewRecorder()
	AuthRegister(svc, nil).ServeHTTP(resp, req)

	expectStatus(t, resp, http.StatusOK)
	if got := resp.Header().Get(TokenHeader); got != "access-jwt" {
		t.Fatalf("expected token header, got %q", got)
	}
	if svc.register.DisplayName != "Shopper" {
		t.Fatalf("display name not forwarded: %+v", svc.register)
	}

	payload := decodeBody(t, resp)
	expectField(t, payload, "message", "User registered and logged in successfully")
	expectField(t, payload, "access_token", "access-jwt")
	expectField(t, payload, "refresh_token", "refresh-token")
	user, ok := payload["user"].(map[string]any)
	if !ok {
		t.Fatalf("expected user object, got %T", payload["user"])
	}
	expectField(t, user, "email", "shopper@example.com")
	if _, leaked := user["passwordHash"]; leaked {
		t.Fatal("password hash must not be serialized")
	}
}

func TestAuthRegisterConflict(t *testing.T) {
	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeConflict, "user already exists")}
	body := `{"email":"shopper@example.com","password":"secret1"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	resp := httptest.NewRecorder()
	AuthRegister(svc, nil).ServeHTTP(resp, req)

	expectStatus(t, resp, http.StatusBadRequest)
	expectField(t, decodeBody(t, resp), "error", "user already exists")
	if got := resp.Header().Get(TokenHeader); got != "" {
		t.Fatalf("no token expected on conflict, got %q", got)
	}
}

func TestAuthRegisterRejectsShortPassword(t *testing.T) {
	svc := &stubAuthService{session: sampleSession()}
	body := `{"email":"shopper@example.com","password":"123"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	resp := httptest.NewRecorder()
	AuthRegister(svc, nil).ServeHTTP(resp, req)

	expectStatus(t, resp, http.StatusBadRequest)
	if svc.register.Email != "" {
		t.Fatal("service must not be called for an invalid body")
	}
}

func TestAuthLogin(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &stubAuthService{session: sampleSession()}
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"shopper@example.com","password":"secret1"}`))
		resp := httptest.NewRecorder()
		AuthLogin(svc, nil).ServeHTTP(resp, req)

		expectStatus(t, resp, http.StatusOK)
		if got := resp.Header().Get(TokenHeader); got != "access-jwt" {
			t.Fatalf("expected token header, got %q", got)
		}
		expectField(t, decodeBody(t, resp), "message", "Login successful")
	})

	t.Run("wrong password", func(t *testing.T) {
		svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid password")}
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"shopper@example.com","password":"nope"}`))
		resp := httptest.NewRecorder()
		AuthLogin(svc, nil).ServeHTTP(resp, req)

		expectStatus(t, resp, http.StatusUnauthorized)
		expectField(t, decodeBody(t, resp), "error", "invalid password")
	})
}

func TestAuthRefresh(t *testing.T) {
	svc := &stubAuthService{session: sampleSession()}
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(`{"refresh_token":"old-refresh"}`))
	req.Header.Set("Authorization", "Bearer expired-jwt")
	resp := httptest.NewRecorder()
	AuthRefresh(svc, nil).ServeHTTP(resp, req)

	expectStatus(t, resp, http.StatusOK)
	if svc.refreshAccess != "expired-jwt" || svc.refreshToken != "old-refresh" {
		t.Fatalf("unexpected refresh inputs access=%q refresh=%q", svc.refreshAccess, svc.refreshToken)
	}
	if got := resp.Header().Get(TokenHeader); got != "access-jwt" {
		t.Fatalf("expected rotated token header, got %q", got)
	}
}

func TestAuthRefreshRequiresBearer(t *testing.T) {
	svc := &stubAuthService{session: sampleSession()}
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(`{"refresh_token":"old-refresh"}`))
	resp := httptest.NewRecorder()
	AuthRefresh(svc, nil).ServeHTTP(resp, req)

	expectStatus(t, resp, http.StatusUnauthorized)
	if svc.refreshToken != "" {
		t.Fatal("service must not be called without a bearer token")
	}
}

func TestAuthRequestPasswordReset(t *testing.T) {
	send := func(svc *stubAuthService, email string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/reset-password", strings.NewReader(`{"email":"`+email+`"}`))
		resp := httptest.NewRecorder()
		AuthRequestPasswordReset(svc, nil).ServeHTTP(resp, req)
		return resp
	}

	t.Run("token hidden", func(t *testing.T) {
		resp := send(&stubAuthService{issued: &auth.ResetIssued{}}, "shopper@example.com")
		expectStatus(t, resp, http.StatusOK)
		payload := decodeBody(t, resp)
		expectField(t, payload, "message", "Password reset email sent")
		if _, ok := payload["token"]; ok {
			t.Fatal("token must be hidden")
		}
	})

	t.Run("token exposed", func(t *testing.T) {
		resp := send(&stubAuthService{issued: &auth.ResetIssued{Token: "abc123"}}, "shopper@example.com")
		expectStatus(t, resp, http.StatusOK)
		expectField(t, decodeBody(t, resp), "token", "abc123")
	})

	t.Run("unknown user", func(t *testing.T) {
		resp := send(&stubAuthService{err: pkgerrors.New(pkgerrors.CodeNotFound, "user not found")}, "ghost@example.com")
		expectStatus(t, resp, http.StatusNotFound)
		expectField(t, decodeBody(t, resp), "error", "user not found")
	})

	t.Run("mail failure is generic", func(t *testing.T) {
		resp := send(&stubAuthService{err: pkgerrors.New(pkgerrors.CodeInternal, "send reset email: smtp refused")}, "shopper@example.com")
		expectStatus(t, resp, http.StatusInternalServerError)
		if strings.Contains(resp.Body.String(), "smtp") {
			t.Fatalf("internal detail leaked: %s", resp.Body.String())
		}
	})
}

func TestAuthChangePassword(t *testing.T) {
	svc := &stubAuthService{}
	req := httptest.NewRequest(http.MethodPost, "/auth/change-password", strings.NewReader(`{"resetPasswordToken":"abc123","newPassword":"newsecret"}`))
	resp := httptest.NewRecorder()
	AuthChangePassword(svc, nil).ServeHTTP(resp, req)

	expectStatus(t, resp, http.StatusOK)
	if svc.change.ResetPasswordToken != "abc123" {
		t.Fatalf("token not forwarded: %+v", svc.change)
	}
	expectField(t, decodeBody(t, resp), "message", "Password reset successfully")

	svc = &stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid or expired reset token")}
	req = httptest.NewRequest(http.MethodPost, "/auth/change-password", strings.NewReader(`{"resetPasswordToken":"stale","newPassword":"newsecret"}`))
	resp = httptest.NewRecorder()
	AuthChangePassword(svc, nil).ServeHTTP(resp, req)

	expectStatus(t, resp, http.StatusUnauthorized)
	expectField(t, decodeBody(t, resp), "error", "invalid or expired reset token")
}

func TestOAuthBeginRedirects(t *testing.T) {
	svc := &stubAuthService{oauthURL: "https://accounts.google.com/o/oauth2/auth?state=xyz"}
	req := httptest.NewRequest(http.MethodGet, "/auth/google", nil)
	resp := httptest.NewRecorder()
	OAuthBegin(svc, enums.AuthProviderGoogle, nil).ServeHTTP(resp, req)

	expectStatus(t, resp, http.StatusFound)
	if got := resp.Header().Get("Location"); got != svc.oauthURL {
		t.Fatalf("expected redirect to consent url, got %q", got)
	}
	if svc.provider != enums.AuthProviderGoogle {
		t.Fatalf("expected google provider, got %q", svc.provider)
	}
}

func TestOAuthBeginUnconfiguredProvider(t *testing.T) {
	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeNotFound, "oauth provider not configured")}
	req := httptest.NewRequest(http.MethodGet, "/auth/facebook", nil)
	resp := httptest.NewRecorder()
	OAuthBegin(svc, enums.AuthProviderFacebook, nil).ServeHTTP(resp, req)

	expectStatus(t, resp, http.StatusNotFound)
}

func TestOAuthCallbackSetsCookie(t *testing.T) {
	svc := &stubAuthService{session: sampleSession()}
	cookies := SessionCookieConfig{Secure: true, MaxAge: time.Hour}
	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=s1&code=c1", nil)
	resp := httptest.NewRecorder()
	OAuthCallback(svc, enums.AuthProviderGoogle, cookies, "http://localhost:3000/", nil).ServeHTTP(resp, req)

	expectStatus(t, resp, http.StatusFound)
	if got := resp.Header().Get("Location"); got != "http://localhost:3000/" {
		t.Fatalf("expected redirect to client, got %q", got)
	}
	if svc.state != "s1" || svc.code != "c1" {
		t.Fatalf("unexpected callback inputs state=%q code=%q", svc.state, svc.code)
	}

	result := resp.Result()
	defer result.Body.Close()
	set := result.Cookies()
	if len(set) != 1 {
		t.Fatalf("expected one cookie, got %d", len(set))
	}
	c := set[0]
	if c.Name != middleware.SessionCookie || c.Value != "access-jwt" || !c.HttpOnly || !c.Secure || c.MaxAge != 3600 {
		t.Fatalf("unexpected session cookie %+v", c)
	}
}

func TestOAuthCallbackFailures(t *testing.T) {
	cases := map[string]struct {
		svc    *stubAuthService
		target string
	}{
		"provider denied": {
			svc:    &stubAuthService{session: sampleSession()},
			target: "/auth/google/callback?error=access_denied",
		},
		"bad state": {
			svc:    &stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid oauth state")},
			target: "/auth/google/callback?state=forged&code=c1",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			resp := httptest.NewRecorder()
			OAuthCallback(tc.svc, enums.AuthProviderGoogle, SessionCookieConfig{MaxAge: time.Hour}, "http://localhost:3000/", nil).ServeHTTP(resp, req)

			expectStatus(t, resp, http.StatusFound)
			if got := resp.Header().Get("Location"); got != LoginFailedPath {
				t.Fatalf("expected redirect to %s, got %q", LoginFailedPath, got)
			}
			if set := resp.Result().Cookies(); len(set) != 0 {
				t.Fatalf("no cookie expected on failure, got %+v", set)
			}
		})
	}
}

func TestLoginSuccess(t *testing.T) {
	userID := uuid.New()
	svc := &stubAuthService{user: &users.UserDTO{ID: userID, Email: "shopper@example.com"}}
	req := httptest.NewRequest(http.MethodGet, "/auth/login/success", nil)
	req = req.WithContext(middleware.WithUserID(context.Background(), userID.String()))
	resp := httptest.NewRecorder()
	LoginSuccess(svc, nil).ServeHTTP(resp, req)

	expectStatus(t, resp, http.StatusOK)
	if svc.lookedUp != userID {
		t.Fatalf("expected lookup of %s, got %s", userID, svc.lookedUp)
	}
	payload := decodeBody(t, resp)
	expectField(t, payload, "success", true)
	expectField(t, payload, "message", "successfull")
	if payload["user"] == nil {
		t.Fatal("expected user in payload")
	}
}

func TestLoginSuccessWithoutIdentity(t *testing.T) {
	svc := &stubAuthService{}
	req := httptest.NewRequest(http.MethodGet, "/auth/login/success", nil)
	resp := httptest.NewRecorder()
	LoginSuccess(svc, nil).ServeHTTP(resp, req)

	expectStatus(t, resp, http.StatusUnauthorized)
}

func TestLoginFailed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/auth/login/failed", nil)
	resp := httptest.NewRecorder()
	LoginFailed().ServeHTTP(resp, req)

	expectStatus(t, resp, http.StatusUnauthorized)
	payload := decodeBody(t, resp)
	expectField(t, payload, "success", false)
	expectField(t, payload, "message", "failure")
}

func TestLogoutRevokesAndClearsCookie(t *testing.T) {
	svc := &stubAuthService{}
	req := httptest.NewRequest(http.MethodGet, "/auth/logout", nil)
	req = req.WithContext(middleware.WithAccessID(context.Background(), "jti-1"))
	resp := httptest.NewRecorder()
	Logout(svc, SessionCookieConfig{MaxAge: time.Hour}, "http://localhost:3000/", nil).ServeHTTP(resp, req)

	expectStatus(t, resp, http.StatusFound)
	if svc.loggedOut != "jti-1" {
		t.Fatalf("expected jti-1 revoked, got %q", svc.loggedOut)
	}
	if got := resp.Header().Get("Location"); got != "http://localhost:3000/" {
		t.Fatalf("expected redirect to client, got %q", got)
	}

	set := resp.Result().Cookies()
	if len(set) != 1 || set[0].Name != middleware.SessionCookie || set[0].MaxAge >= 0 {
		t.Fatalf("expected cleared session cookie, got %+v", set)
	}
}

func TestLogoutRevokeFailure(t *testing.T) {
	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeDependency, "revoke session")}
	req := httptest.NewRequest(http.MethodGet, "/auth/logout", nil)
	req = req.WithContext(middleware.WithAccessID(context.Background(), "jti-1"))
	resp := httptest.NewRecorder()
	Logout(svc, SessionCookieConfig{}, "http://localhost:3000/", nil).ServeHTTP(resp, req)

	expectStatus(t, resp, http.StatusServiceUnavailable)
	if set := resp.Result().Cookies(); len(set) != 0 {
		t.Fatalf("cookie must stay when revoke fails, got %+v", set)
	}
}

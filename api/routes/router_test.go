package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/solecart-backend/api/middleware"
	"github.com/angelmondragon/solecart-backend/internal/auth"
	"github.com/angelmondragon/solecart-backend/internal/cart"
	"github.com/angelmondragon/solecart-backend/internal/events"
	"github.com/angelmondragon/solecart-backend/internal/users"
	pkgAuth "github.com/angelmondragon/solecart-backend/pkg/auth"
	"github.com/angelmondragon/solecart-backend/pkg/auth/session"
	"github.com/angelmondragon/solecart-backend/pkg/config"
	"github.com/angelmondragon/solecart-backend/pkg/db"
	"github.com/angelmondragon/solecart-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/solecart-backend/pkg/errors"
	"github.com/angelmondragon/solecart-backend/pkg/logger"
	"github.com/angelmondragon/solecart-backend/pkg/metrics"
	"github.com/angelmondragon/solecart-backend/pkg/migrate"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionChecker struct {
	ok bool
}

func (s stubSessionChecker) HasSession(ctx context.Context, accessID string) (bool, error) {
	return s.ok, nil
}

type stubAuthService struct {
	loggedOut string
}

func (s *stubAuthService) Register(ctx context.Context, req auth.RegisterRequest) (*auth.Session, error) {
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "user already exists")
}

func (s *stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.Session, error) {
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user not found")
}

func (s *stubAuthService) Refresh(ctx context.Context, accessToken, refreshToken string) (*auth.Session, error) {
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
}

func (s *stubAuthService) Logout(ctx context.Context, accessID string) error {
	s.loggedOut = accessID
	return nil
}

func (s *stubAuthService) CurrentUser(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	return &users.UserDTO{ID: userID, Email: "shopper@example.com"}, nil
}

func (s *stubAuthService) RequestPasswordReset(ctx context.Context, req auth.ResetPasswordRequest) (*auth.ResetIssued, error) {
	return &auth.ResetIssued{}, nil
}

func (s *stubAuthService) ResetPassword(ctx context.Context, req auth.ChangePasswordRequest) error {
	return nil
}

func (s *stubAuthService) BeginOAuth(ctx context.Context, provider enums.AuthProvider) (string, error) {
	return "https://provider.example.com/consent?p=" + string(provider), nil
}

func (s *stubAuthService) CompleteOAuth(ctx context.Context, provider enums.AuthProvider, state, code string) (*auth.Session, error) {
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid oauth state")
}

type countingLimiter struct {
	counts map[string]int64
}

func (c *countingLimiter) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	c.counts[scope]++
	return c.counts[scope] <= limit, c.counts[scope], nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0", ClientURL: "http://localhost:3000/", CORSOrigins: "http://localhost:3000"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
		AuthRateLimit: config.AuthRateLimitConfig{
			LoginWindow:     time.Minute,
			LoginEmailLimit: 2,
			LoginIPLimit:    100,
		},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config, limiter RateLimiter) (http.Handler, *stubAuthService) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := migrate.AutoMigrate(conn); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	cartService, err := cart.NewService(cart.NewRepository(conn), db.FromGorm(conn), events.Noop{})
	if err != nil {
		t.Fatalf("cart service: %v", err)
	}

	registry := metrics.NewRegistry()
	authService := &stubAuthService{}
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	handler := NewRouter(cfg, logg, Dependencies{
		DB:          stubPinger{},
		Redis:       stubPinger{},
		RateLimiter: limiter,
		Sessions:    stubSessionChecker{ok: true},
		Auth:        authService,
		Cart:        cartService,
		Registry:    registry,
		HTTPMetrics: metrics.NewHTTPMetrics(registry),
	})
	return handler, authService
}

func serve(handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func expectCode(t *testing.T, resp *httptest.ResponseRecorder, want int) {
	t.Helper()
	if resp.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, resp.Code, resp.Body.String())
	}
}

func decodeInto(t *testing.T, resp *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

type cartPayload struct {
	UniqueID       string  `json:"unique_id"`
	TotalPrice     float64 `json:"totalPrice"`
	ShoeVariations []struct {
		ID       string `json:"id"`
		Quantity int    `json:"quantity"`
	} `json:"shoeVariations"`
}

func TestCartRoutesEndToEnd(t *testing.T) {
	router, _ := newTestRouter(t, testConfig(), nil)

	add := func(id string, price string, checked bool) {
		body := fmt.Sprintf(`{"email":"shopper@example.com","shoeVariation":{"id":%q,"name":"Runner","type":"M","size":10,"quantity":1,"checkmark":%t,"price":%s}}`, id, checked, price)
		expectCode(t, serve(router, http.MethodPost, "/carts/add-to-cart", body), http.StatusOK)
	}
	add("sku-1", "50", true)
	add("sku-2", "30", false)

	resp := serve(router, http.MethodGet, "/carts/cart/shopper@example.com", "")
	expectCode(t, resp, http.StatusOK)
	var found struct {
		Cart    cartPayload `json:"cart"`
		Message string      `json:"message"`
	}
	decodeInto(t, resp, &found)
	if found.Message != "Cart has been found" || found.Cart.UniqueID == "" {
		t.Fatalf("unexpected get response %+v", found)
	}
	if found.Cart.TotalPrice != 80 || len(found.Cart.ShoeVariations) != 2 {
		t.Fatalf("expected two items totalling 80, got %+v", found.Cart)
	}

	resp = serve(router, http.MethodPut, "/carts/update-item-quantity/shopper@example.com/sku-1", `{"quantity":3}`)
	expectCode(t, resp, http.StatusOK)
	var updated cartPayload
	decodeInto(t, resp, &updated)
	if updated.TotalPrice != 180 {
		t.Fatalf("expected total 180 after quantity update, got %v", updated.TotalPrice)
	}

	resp = serve(router, http.MethodDelete, "/carts/cart/shopper@example.com/remove-unchecked", "")
	expectCode(t, resp, http.StatusOK)
	var kept cartPayload
	decodeInto(t, resp, &kept)
	if len(kept.ShoeVariations) != 1 || kept.ShoeVariations[0].ID != "sku-1" || kept.TotalPrice != 50 {
		t.Fatalf("expected only sku-1 at 50, got %+v", kept)
	}

	resp = serve(router, http.MethodDelete, "/carts/cart/shopper@example.com/remove-item/sku-1", "")
	expectCode(t, resp, http.StatusOK)
	var emptied cartPayload
	decodeInto(t, resp, &emptied)
	if len(emptied.ShoeVariations) != 0 || emptied.TotalPrice != 0 {
		t.Fatalf("expected empty cart, got %+v", emptied)
	}

	resp = serve(router, http.MethodDelete, "/carts/cart/shopper@example.com/remove-checked-items", `{"itemsToRemove":["sku-9"]}`)
	expectCode(t, resp, http.StatusOK)
}

func TestCartRoutesNotFound(t *testing.T) {
	router, _ := newTestRouter(t, testConfig(), nil)

	for _, tc := range []struct {
		method, target, body string
	}{
		{http.MethodGet, "/carts/cart/ghost@example.com", ""},
		{http.MethodDelete, "/carts/cart/ghost@example.com/remove-item/sku-1", ""},
		{http.MethodDelete, "/carts/cart/ghost@example.com/remove-unchecked", ""},
		{http.MethodDelete, "/carts/cart/ghost@example.com/remove-checked-items", `{"itemsToRemove":["sku-1"]}`},
		{http.MethodPut, "/carts/update-item-quantity/ghost@example.com/sku-1", `{"quantity":1}`},
	} {
		resp := serve(router, tc.method, tc.target, tc.body)
		if resp.Code != http.StatusNotFound {
			t.Fatalf("%s %s: expected 404, got %d", tc.method, tc.target, resp.Code)
		}
		var payload struct {
			Error string `json:"error"`
		}
		decodeInto(t, resp, &payload)
		if payload.Error != "cart not found" {
			t.Fatalf("%s %s: unexpected error %q", tc.method, tc.target, payload.Error)
		}
	}
}

func TestSessionRoutesRequireCredentials(t *testing.T) {
	cfg := testConfig()
	router, authSvc := newTestRouter(t, cfg, nil)

	expectCode(t, serve(router, http.MethodGet, "/auth/login/success", ""), http.StatusUnauthorized)

	token, accessID := buildToken(t, cfg)
	req := httptest.NewRequest(http.MethodGet, "/auth/login/success", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: token})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	expectCode(t, rec, http.StatusOK)

	req = httptest.NewRequest(http.MethodGet, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	expectCode(t, rec, http.StatusFound)
	if authSvc.loggedOut != accessID {
		t.Fatalf("expected %s revoked, got %q", accessID, authSvc.loggedOut)
	}
	if got := rec.Header().Get("Location"); got != cfg.App.ClientURL {
		t.Fatalf("expected redirect to client, got %q", got)
	}
}

func TestOAuthRoutes(t *testing.T) {
	router, _ := newTestRouter(t, testConfig(), nil)

	for _, provider := range []string{"google", "facebook"} {
		resp := serve(router, http.MethodGet, "/auth/"+provider, "")
		expectCode(t, resp, http.StatusFound)
		if loc := resp.Header().Get("Location"); !strings.Contains(loc, "p="+provider) {
			t.Fatalf("expected %s consent redirect, got %q", provider, loc)
		}
	}

	resp := serve(router, http.MethodGet, "/auth/google/callback?state=s&code=c", "")
	expectCode(t, resp, http.StatusFound)
	if loc := resp.Header().Get("Location"); loc != "/auth/login/failed" {
		t.Fatalf("expected failed login redirect, got %q", loc)
	}

	expectCode(t, serve(router, http.MethodGet, "/auth/login/failed", ""), http.StatusUnauthorized)
}

func TestLoginIsRateLimited(t *testing.T) {
	limiter := &countingLimiter{counts: map[string]int64{}}
	router, _ := newTestRouter(t, testConfig(), limiter)

	body := `{"email":"shopper@example.com","password":"wrong"}`
	for i := 0; i < 2; i++ {
		expectCode(t, serve(router, http.MethodPost, "/auth/login", body), http.StatusUnauthorized)
	}
	resp := serve(router, http.MethodPost, "/auth/login", body)
	expectCode(t, resp, http.StatusTooManyRequests)
	if resp.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After on rate limited response")
	}
}

func TestHealthAndMetrics(t *testing.T) {
	router, _ := newTestRouter(t, testConfig(), nil)

	expectCode(t, serve(router, http.MethodGet, "/health/live", ""), http.StatusOK)
	expectCode(t, serve(router, http.MethodGet, "/health/ready", ""), http.StatusOK)

	resp := serve(router, http.MethodGet, "/metrics", "")
	expectCode(t, resp, http.StatusOK)
	for _, sub := range []string{"solecart_http_requests_total", `route="/health/live"`} {
		if !strings.Contains(resp.Body.String(), sub) {
			t.Fatalf("metrics output missing %q", sub)
		}
	}
}

func TestRequestIDOnEveryResponse(t *testing.T) {
	router, _ := newTestRouter(t, testConfig(), nil)

	resp := serve(router, http.MethodGet, "/carts/cart/ghost@example.com", "")
	if resp.Header().Get(middleware.RequestIDHeader) == "" {
		t.Fatal("expected generated request id on error response")
	}
}

func TestCORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t, testConfig(), nil)

	req := httptest.NewRequest(http.MethodOptions, "/carts/add-to-cart", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("unexpected allow origin %q", got)
	}
	if got := resp.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("expected credentials allowed, got %q", got)
	}
}

func buildToken(t *testing.T, cfg *config.Config) (string, string) {
	t.Helper()
	accessID := session.NewAccessID()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:   uuid.New(),
		Email:    "shopper@example.com",
		Provider: enums.AuthProviderLocal,
		JTI:      accessID,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token, accessID
}

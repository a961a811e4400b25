package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/solecart-backend/internal/auth"
	"github.com/angelmondragon/solecart-backend/internal/users"
	"github.com/angelmondragon/solecart-backend/pkg/db/models"
	"github.com/angelmondragon/solecart-backend/pkg/enums"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type stubCartService struct {
	cart *models.Cart
	err  error

	email    string
	item     models.ShoeVariation
	itemID   string
	itemIDs  []string
	quantity int
	called   string
}

func (s *stubCartService) AddItem(ctx context.Context, email string, item models.ShoeVariation) (*models.Cart, error) {
	s.called, s.email, s.item = "add", email, item
	return s.cart, s.err
}

func (s *stubCartService) GetCart(ctx context.Context, email string) (*models.Cart, error) {
	s.called, s.email = "get", email
	return s.cart, s.err
}

func (s *stubCartService) RemoveCheckedItems(ctx context.Context, email string, itemIDs []string) (*models.Cart, error) {
	s.called, s.email, s.itemIDs = "remove_checked", email, itemIDs
	return s.cart, s.err
}

func (s *stubCartService) RemoveItem(ctx context.Context, email, itemID string) (*models.Cart, error) {
	s.called, s.email, s.itemID = "remove_item", email, itemID
	return s.cart, s.err
}

func (s *stubCartService) UpdateItemQuantity(ctx context.Context, email, itemID string, quantity int) (*models.Cart, error) {
	s.called, s.email, s.itemID, s.quantity = "update_quantity", email, itemID, quantity
	return s.cart, s.err
}

func (s *stubCartService) RemoveUncheckedItems(ctx context.Context, email string) (*models.Cart, error) {
	s.called, s.email = "remove_unchecked", email
	return s.cart, s.err
}

type stubAuthService struct {
	session *auth.Session
	user    *users.UserDTO
	issued  *auth.ResetIssued
	err     error

	oauthURL string

	register      auth.RegisterRequest
	login         auth.LoginRequest
	reset         auth.ResetPasswordRequest
	change        auth.ChangePasswordRequest
	refreshAccess string
	refreshToken  string
	loggedOut     string
	lookedUp      uuid.UUID
	provider      enums.AuthProvider
	state         string
	code          string
}

func (s *stubAuthService) Register(ctx context.Context, req auth.RegisterRequest) (*auth.Session, error) {
	s.register = req
	return s.session, s.err
}

func (s *stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.Session, error) {
	s.login = req
	return s.session, s.err
}

func (s *stubAuthService) Refresh(ctx context.Context, accessToken, refreshToken string) (*auth.Session, error) {
	s.refreshAccess, s.refreshToken = accessToken, refreshToken
	return s.session, s.err
}

func (s *stubAuthService) Logout(ctx context.Context, accessID string) error {
	s.loggedOut = accessID
	return s.err
}

func (s *stubAuthService) CurrentUser(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	s.lookedUp = userID
	return s.user, s.err
}

func (s *stubAuthService) RequestPasswordReset(ctx context.Context, req auth.ResetPasswordRequest) (*auth.ResetIssued, error) {
	s.reset = req
	return s.issued, s.err
}

func (s *stubAuthService) ResetPassword(ctx context.Context, req auth.ChangePasswordRequest) error {
	s.change = req
	return s.err
}

func (s *stubAuthService) BeginOAuth(ctx context.Context, provider enums.AuthProvider) (string, error) {
	s.provider = provider
	return s.oauthURL, s.err
}

func (s *stubAuthService) CompleteOAuth(ctx context.Context, provider enums.AuthProvider, state, code string) (*auth.Session, error) {
	s.provider, s.state, s.code = provider, state, code
	return s.session, s.err
}

func withURLParams(r *http.Request, params map[string]string) *http.Request {
	routeCtx := chi.NewRouteContext()
	for key, value := range params {
		routeCtx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, routeCtx))
}

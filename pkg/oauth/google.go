package oauth

import (
	"context"
	"fmt"

	"github.com/angelmondragon/solecart-backend/pkg/config"
	"github.com/angelmondragon/solecart-backend/pkg/enums"
	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const googleIssuer = "https://accounts.google.com"

// OIDCProvider verifies the id_token returned by an OpenID Connect provider.
type OIDCProvider struct {
	name         enums.AuthProvider
	verifier     *oidc.IDTokenVerifier
	oauth2Config *oauth2.Config
}

type oidcClaims struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// NewGoogleProvider discovers Google's OIDC metadata and builds the flow.
func NewGoogleProvider(ctx context.Context, cfg config.OAuthProviderConfig) (*OIDCProvider, error) {
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("discover google oidc: %w", err)
	}
	return newOIDCProvider(
		enums.AuthProviderGoogle,
		provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		&oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
	), nil
}

func newOIDCProvider(name enums.AuthProvider, verifier *oidc.IDTokenVerifier, conf *oauth2.Config) *OIDCProvider {
	return &OIDCProvider{name: name, verifier: verifier, oauth2Config: conf}
}

func (p *OIDCProvider) Name() enums.AuthProvider {
	return p.name
}

func (p *OIDCProvider) AuthCodeURL(state string) string {
	return p.oauth2Config.AuthCodeURL(state)
}

// Exchange trades the code for tokens and maps the verified id_token claims.
func (p *OIDCProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	if code == "" {
		return nil, ErrMissingCode
	}
	token, err := p.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, fmt.Errorf("missing id_token in response")
	}
	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("verify id_token: %w", err)
	}

	var claims oidcClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("parse id_token claims: %w", err)
	}
	if claims.Email != "" && !claims.EmailVerified {
		return nil, fmt.Errorf("%s email is not verified", p.name)
	}

	profile := &Profile{
		Provider:    p.name,
		ExternalID:  idToken.Subject,
		Email:       claims.Email,
		DisplayName: claims.Name,
	}
	if err := profile.validate(); err != nil {
		return nil, err
	}
	return profile, nil
}

// Package oauth runs the Google and Facebook authorization code flows and
// normalizes the returned identity into a Profile.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/solecart-backend/pkg/config"
	"github.com/angelmondragon/solecart-backend/pkg/enums"
	"github.com/angelmondragon/solecart-backend/pkg/logger"
)

var (
	ErrUnknownProvider = errors.New("oauth provider not configured")
	ErrMissingCode     = errors.New("missing authorization code")
)

// Profile is the identity an external provider vouches for.
type Profile struct {
	Provider    enums.AuthProvider
	ExternalID  string
	Email       string
	DisplayName string
}

func (p *Profile) validate() error {
	p.ExternalID = strings.TrimSpace(p.ExternalID)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.DisplayName = strings.TrimSpace(p.DisplayName)
	if p.ExternalID == "" {
		return fmt.Errorf("%s profile missing user id", p.Provider)
	}
	if p.Email == "" {
		return fmt.Errorf("%s profile missing email", p.Provider)
	}
	if p.DisplayName == "" {
		p.DisplayName = p.Email
	}
	return nil
}

// Provider drives a single identity provider's authorization code flow.
type Provider interface {
	Name() enums.AuthProvider
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Profile, error)
}

// Registry holds the providers that have credentials configured.
type Registry struct {
	providers map[enums.AuthProvider]Provider
}

// NewRegistry wires every enabled provider. Google discovery failures are
// logged and leave Google disabled rather than blocking boot.
func NewRegistry(ctx context.Context, cfg config.OAuthConfig, logg *logger.Logger) *Registry {
	reg := &Registry{providers: map[enums.AuthProvider]Provider{}}

	if google := cfg.Google(); google.Enabled() {
		p, err := NewGoogleProvider(ctx, google)
		if err != nil {
			if logg != nil {
				logg.Warn(logg.WithField(ctx, "error", err.Error()), "google oauth disabled: discovery failed")
			}
		} else {
			reg.Register(p)
		}
	}
	if facebook := cfg.Facebook(); facebook.Enabled() {
		reg.Register(NewFacebookProvider(facebook))
	}
	return reg
}

// NewStaticRegistry builds a registry from already constructed providers.
func NewStaticRegistry(providers ...Provider) *Registry {
	reg := &Registry{providers: map[enums.AuthProvider]Provider{}}
	for _, p := range providers {
		reg.Register(p)
	}
	return reg
}

func (r *Registry) Register(p Provider) {
	if p == nil {
		return
	}
	r.providers[p.Name()] = p
}

// Get returns the provider or ErrUnknownProvider.
func (r *Registry) Get(name enums.AuthProvider) (Provider, error) {
	if r == nil {
		return nil, ErrUnknownProvider
	}
	p, ok := r.providers[name]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return p, nil
}

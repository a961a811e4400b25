package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/angelmondragon/solecart-backend/pkg/config"
	"github.com/angelmondragon/solecart-backend/pkg/enums"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
)

const facebookProfileURL = "https://graph.facebook.com/me?fields=id,name,email"

// FacebookProvider uses the Graph API to resolve the user behind an access token.
type FacebookProvider struct {
	oauth2Config *oauth2.Config
	profileURL   string
}

type facebookProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func NewFacebookProvider(cfg config.OAuthProviderConfig) *FacebookProvider {
	return &FacebookProvider{
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     facebook.Endpoint,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"email", "public_profile"},
		},
		profileURL: facebookProfileURL,
	}
}

func (p *FacebookProvider) Name() enums.AuthProvider {
	return enums.AuthProviderFacebook
}

func (p *FacebookProvider) AuthCodeURL(state string) string {
	return p.oauth2Config.AuthCodeURL(state)
}

func (p *FacebookProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	if code == "" {
		return nil, ErrMissingCode
	}
	token, err := p.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.profileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build profile request: %w", err)
	}
	resp, err := p.oauth2Config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch facebook profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("facebook profile request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var fb facebookProfile
	if err := json.NewDecoder(resp.Body).Decode(&fb); err != nil {
		return nil, fmt.Errorf("decode facebook profile: %w", err)
	}

	profile := &Profile{
		Provider:    enums.AuthProviderFacebook,
		ExternalID:  fb.ID,
		Email:       fb.Email,
		DisplayName: fb.Name,
	}
	if err := profile.validate(); err != nil {
		return nil, err
	}
	return profile, nil
}

package enums

import (
	"fmt"
	"strings"
)

// AuthProvider records how a user first authenticated.
type AuthProvider string

const (
	AuthProviderLocal    AuthProvider = "local"
	AuthProviderGoogle   AuthProvider = "google"
	AuthProviderFacebook AuthProvider = "facebook"
)

var validAuthProviders = []AuthProvider{
	AuthProviderLocal,
	AuthProviderGoogle,
	AuthProviderFacebook,
}

// String implements fmt.Stringer.
func (a AuthProvider) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AuthProvider.
func (a AuthProvider) IsValid() bool {
	for _, candidate := range validAuthProviders {
		if candidate == a {
			return true
		}
	}
	return false
}

// IsOAuth reports whether the provider is an external identity provider.
func (a AuthProvider) IsOAuth() bool {
	return a == AuthProviderGoogle || a == AuthProviderFacebook
}

// ParseAuthProvider converts raw input into an AuthProvider.
func ParseAuthProvider(value string) (AuthProvider, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validAuthProviders {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid auth provider %q", value)
}

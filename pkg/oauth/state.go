package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/solecart-backend/pkg/enums"
	redislib "github.com/redis/go-redis/v9"
)

const stateBytes = 24

// ErrInvalidState means the state was never issued, already used, or expired.
var ErrInvalidState = errors.New("invalid oauth state")

type stateBackend interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	GetDel(ctx context.Context, key string) (string, error)
	OAuthStateKey(state string) string
}

// StateStore keeps one-time CSRF state values for pending handshakes.
type StateStore struct {
	backend stateBackend
	ttl     time.Duration
}

func NewStateStore(backend stateBackend, ttl time.Duration) (*StateStore, error) {
	if backend == nil {
		return nil, fmt.Errorf("state backend is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("state ttl must be positive")
	}
	return &StateStore{backend: backend, ttl: ttl}, nil
}

// Issue creates a fresh state bound to the provider.
func (s *StateStore) Issue(ctx context.Context, provider enums.AuthProvider) (string, error) {
	buf := make([]byte, stateBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	state := base64.RawURLEncoding.EncodeToString(buf)

	ok, err := s.backend.SetNX(ctx, s.backend.OAuthStateKey(state), provider.String(), s.ttl)
	if err != nil {
		return "", fmt.Errorf("store state: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("state collision")
	}
	return state, nil
}

// Consume deletes the state and checks it was issued for the provider.
func (s *StateStore) Consume(ctx context.Context, provider enums.AuthProvider, state string) error {
	if state == "" {
		return ErrInvalidState
	}
	stored, err := s.backend.GetDel(ctx, s.backend.OAuthStateKey(state))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return ErrInvalidState
		}
		return fmt.Errorf("load state: %w", err)
	}
	if stored != provider.String() {
		return ErrInvalidState
	}
	return nil
}

package auth

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/solecart-backend/internal/events"
	"github.com/angelmondragon/solecart-backend/internal/users"
	"github.com/angelmondragon/solecart-backend/pkg/auth/session"
	"github.com/angelmondragon/solecart-backend/pkg/config"
	"github.com/angelmondragon/solecart-backend/pkg/db/models"
	"github.com/angelmondragon/solecart-backend/pkg/enums"
	"github.com/angelmondragon/solecart-backend/pkg/logger"
	"github.com/angelmondragon/solecart-backend/pkg/mailer"
	"github.com/angelmondragon/solecart-backend/pkg/oauth"
	"github.com/angelmondragon/solecart-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	testJWTConfig = config.JWTConfig{
		Secret:                 "secret",
		Issuer:                 "solecart",
		ExpirationMinutes:      30,
		RefreshTokenTTLMinutes: 600,
	}
	testHashConfig = config.PasswordConfig{
		ArgonMemoryKB:    64,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
	testResetConfig = config.PasswordResetConfig{
		TokenLength: 20,
		TokenTTL:    time.Hour,
		LinkBaseURL: "http://localhost:3000/reset-password/",
	}
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubUserRepository struct {
	mu        sync.Mutex
	byID      map[uuid.UUID]*models.User
	createErr error
	creates   int
}

func newStubUserRepository() *stubUserRepository {
	return &stubUserRepository{byID: map[uuid.UUID]*models.User{}}
}

func (s *stubUserRepository) add(u *models.User) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.GoogleID == "" {
		u.GoogleID = uuid.NewString()
	}
	if u.FacebookID == "" {
		u.FacebookID = uuid.NewString()
	}
	if u.Provider == "" {
		u.Provider = enums.AuthProviderLocal
	}
	s.byID[u.ID] = u
	return u
}

func (s *stubUserRepository) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func (s *stubUserRepository) find(match func(*models.User) bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if match(u) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepository) get(id uuid.UUID) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byID[id]
}

func (s *stubUserRepository) Create(_ context.Context, dto users.CreateUserDTO) (*models.User, error) {
	s.creates++
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.add(dto.ToModel()), nil
}

func (s *stubUserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.Email == email })
}

func (s *stubUserRepository) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.ID == id })
}

func (s *stubUserRepository) FindByResetToken(_ context.Context, token string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.ResetPasswordToken != nil && *u.ResetPasswordToken == token })
}

func (s *stubUserRepository) FindByProviderID(_ context.Context, provider enums.AuthProvider, externalID string) (*models.User, error) {
	return s.find(func(u *models.User) bool {
		switch provider {
		case enums.AuthProviderGoogle:
			return u.GoogleID == externalID
		case enums.AuthProviderFacebook:
			return u.FacebookID == externalID
		}
		return false
	})
}

func (s *stubUserRepository) LinkProvider(_ context.Context, id uuid.UUID, provider enums.AuthProvider, externalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	setProviderID(u, provider, externalID)
	return nil
}

func (s *stubUserRepository) SetResetToken(_ context.Context, id uuid.UUID, token string, expires time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.byID[id]
	u.ResetPasswordToken = &token
	u.ResetPasswordExpires = &expires
	return nil
}

func (s *stubUserRepository) ClearResetToken(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.byID[id]
	u.ResetPasswordToken = nil
	u.ResetPasswordExpires = nil
	return nil
}

func (s *stubUserRepository) ConsumeResetToken(_ context.Context, id uuid.UUID, token, passwordHash string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.byID[id]
	if u == nil || u.ResetPasswordToken == nil || *u.ResetPasswordToken != token ||
		u.ResetPasswordExpires == nil || !u.ResetPasswordExpires.After(now) {
		return false, nil
	}
	u.PasswordHash = passwordHash
	u.ResetPasswordToken = nil
	u.ResetPasswordExpires = nil
	return true, nil
}

func (s *stubUserRepository) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[id]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

func (s *stubUserRepository) UpdatePasswordHash(_ context.Context, id uuid.UUID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[id]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

const cookieSessionMarker = "cookie-session"

type stubSessionManager struct {
	sessions map[string]string
	err      error
}

func newStubSessionManager() *stubSessionManager {
	return &stubSessionManager{sessions: map[string]string{}}
}

func (s *stubSessionManager) Generate(_ context.Context, accessID string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	token := "refresh-" + accessID
	s.sessions[accessID] = token
	return token, nil
}

func (s *stubSessionManager) GenerateCookie(_ context.Context, accessID string) error {
	if s.err != nil {
		return s.err
	}
	s.sessions[accessID] = cookieSessionMarker
	return nil
}

func (s *stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := s.sessions[oldAccessID]
	if !ok || stored == cookieSessionMarker || stored != provided {
		return "", "", errInvalidRefresh
	}
	delete(s.sessions, oldAccessID)
	newID := uuid.NewString()
	token, err := s.Generate(ctx, newID)
	return newID, token, err
}

func (s *stubSessionManager) Revoke(_ context.Context, accessID string) error {
	delete(s.sessions, accessID)
	return nil
}

type stubMailer struct {
	sent []mailer.Message
	err  error
}

func (m *stubMailer) Send(_ context.Context, msg mailer.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type recordingEmitter struct {
	types []enums.EventType
}

func (r *recordingEmitter) Emit(_ context.Context, evt events.Event) {
	r.types = append(r.types, evt.Type)
}

type stubProvider struct {
	name    enums.AuthProvider
	profile *oauth.Profile
	err     error
}

func (p *stubProvider) Name() enums.AuthProvider { return p.name }

func (p *stubProvider) AuthCodeURL(state string) string {
	return "https://provider.example.com/auth?state=" + state
}

func (p *stubProvider) Exchange(_ context.Context, code string) (*oauth.Profile, error) {
	if p.err != nil {
		return nil, p.err
	}
	if code == "" {
		return nil, oauth.ErrMissingCode
	}
	copied := *p.profile
	return &copied, nil
}

type stubStateStore struct {
	issued map[string]enums.AuthProvider
}

func (s *stubStateStore) Issue(_ context.Context, provider enums.AuthProvider) (string, error) {
	state := uuid.NewString()
	s.issued[state] = provider
	return state, nil
}

func (s *stubStateStore) Consume(_ context.Context, provider enums.AuthProvider, state string) error {
	got, ok := s.issued[state]
	delete(s.issued, state)
	if !ok || got != provider {
		return oauth.ErrInvalidState
	}
	return nil
}

var errInvalidRefresh = session.ErrInvalidRefreshToken

type testHarness struct {
	svc      Service
	users    *stubUserRepository
	sessions *stubSessionManager
	mail     *stubMailer
	emitter  *recordingEmitter
	states   *stubStateStore
	logs     *bytes.Buffer
	now      time.Time
}

type harnessOption func(*ServiceParams)

func newHarness(t *testing.T, opts ...harnessOption) *testHarness {
	t.Helper()
	h := &testHarness{
		users:    newStubUserRepository(),
		sessions: newStubSessionManager(),
		mail:     &stubMailer{},
		emitter:  &recordingEmitter{},
		states:   &stubStateStore{issued: map[string]enums.AuthProvider{}},
		logs:     &bytes.Buffer{},
		now:      time.Now().UTC(),
	}
	params := ServiceParams{
		TxRunner:       stubTxRunner{},
		UserRepo:       h.users,
		SessionManager: h.sessions,
		Mailer:         h.mail,
		States:         h.states,
		Emitter:        h.emitter,
		Logger:         logger.New(logger.Options{ServiceName: "test", Output: h.logs}),
		JWTConfig:      testJWTConfig,
		PasswordConfig: testResetConfig,
		HashConfig:     testHashConfig,
		Now:            func() time.Time { return h.now },
	}
	for _, opt := range opts {
		opt(&params)
	}
	svc, err := NewService(params)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	h.svc = svc
	return h
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hashed, err := security.HashPassword(password, testHashConfig)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hashed
}

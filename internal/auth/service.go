package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/solecart-backend/internal/events"
	"github.com/angelmondragon/solecart-backend/internal/users"
	pkgAuth "github.com/angelmondragon/solecart-backend/pkg/auth"
	"github.com/angelmondragon/solecart-backend/pkg/auth/session"
	"github.com/angelmondragon/solecart-backend/pkg/config"
	"github.com/angelmondragon/solecart-backend/pkg/db/models"
	"github.com/angelmondragon/solecart-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/solecart-backend/pkg/errors"
	"github.com/angelmondragon/solecart-backend/pkg/logger"
	"github.com/angelmondragon/solecart-backend/pkg/mailer"
	"github.com/angelmondragon/solecart-backend/pkg/oauth"
	"github.com/angelmondragon/solecart-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	userNotFoundMessage    = "user not found"
	invalidPasswordMessage = "invalid password"
	userExistsMessage      = "user already exists"
	invalidResetMessage    = "invalid or expired reset token"
)

// Service defines the behavior needed by the auth controllers.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*Session, error)
	Login(ctx context.Context, req LoginRequest) (*Session, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*Session, error)
	Logout(ctx context.Context, accessID string) error
	CurrentUser(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error)
	RequestPasswordReset(ctx context.Context, req ResetPasswordRequest) (*ResetIssued, error)
	ResetPassword(ctx context.Context, req ChangePasswordRequest) error
	BeginOAuth(ctx context.Context, provider enums.AuthProvider) (string, error)
	CompleteOAuth(ctx context.Context, provider enums.AuthProvider, state, code string) (*Session, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userRepository interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByResetToken(ctx context.Context, token string) (*models.User, error)
	FindByProviderID(ctx context.Context, provider enums.AuthProvider, externalID string) (*models.User, error)
	LinkProvider(ctx context.Context, id uuid.UUID, provider enums.AuthProvider, externalID string) error
	SetResetToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) error
	ClearResetToken(ctx context.Context, id uuid.UUID) error
	ConsumeResetToken(ctx context.Context, id uuid.UUID, token, passwordHash string, now time.Time) (bool, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	GenerateCookie(ctx context.Context, accessID string) error
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type providerRegistry interface {
	Get(name enums.AuthProvider) (oauth.Provider, error)
}

type stateStore interface {
	Issue(ctx context.Context, provider enums.AuthProvider) (string, error)
	Consume(ctx context.Context, provider enums.AuthProvider, state string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	TxRunner        txRunner
	UserRepo        userRepository
	UserRepoFactory func(tx *gorm.DB) userRepository
	SessionManager  sessionManager
	Mailer          mailer.Sender
	Providers       providerRegistry
	States          stateStore
	Emitter         events.Emitter
	Logger          *logger.Logger
	JWTConfig       config.JWTConfig
	PasswordConfig  config.PasswordResetConfig
	HashConfig      config.PasswordConfig
	ExposeToken     bool
	Now             func() time.Time
}

type service struct {
	tx          txRunner
	users       userRepository
	usersFor    func(tx *gorm.DB) userRepository
	session     sessionManager
	mail        mailer.Sender
	providers   providerRegistry
	states      stateStore
	emitter     events.Emitter
	logg        *logger.Logger
	jwtCfg      config.JWTConfig
	resetCfg    config.PasswordResetConfig
	hashCfg     config.PasswordConfig
	exposeToken bool
	now         func() time.Time
}

// NewService constructs the auth service with the provided dependencies.
// TxScopedUsers binds the user repository to the transaction handle passed
// to the service's write paths.
func TxScopedUsers(repo *users.Repository) func(tx *gorm.DB) userRepository {
	return func(tx *gorm.DB) userRepository {
		return repo.WithTx(tx)
	}
}

func NewService(params ServiceParams) (Service, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Mailer == nil {
		return nil, fmt.Errorf("mailer is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if params.PasswordConfig.TokenLength <= 0 || params.PasswordConfig.TokenTTL <= 0 {
		return nil, fmt.Errorf("password reset token length and ttl must be positive")
	}

	usersFor := params.UserRepoFactory
	if usersFor == nil {
		usersFor = func(*gorm.DB) userRepository { return params.UserRepo }
	}
	emitter := params.Emitter
	if emitter == nil {
		emitter = events.Noop{}
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}

	return &service{
		tx:          params.TxRunner,
		users:       params.UserRepo,
		usersFor:    usersFor,
		session:     params.SessionManager,
		mail:        params.Mailer,
		providers:   params.Providers,
		states:      params.States,
		emitter:     emitter,
		logg:        params.Logger,
		jwtCfg:      params.JWTConfig,
		resetCfg:    params.PasswordConfig,
		hashCfg:     params.HashConfig,
		exposeToken: params.ExposeToken,
		now:         now,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, userNotFoundMessage)
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, userNotFoundMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	if !user.HasPassword() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidPasswordMessage)
	}
	valid, err := security.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidPasswordMessage)
	}
	s.upgradePasswordHash(ctx, user, req.Password)

	return s.issueSession(ctx, user)
}

// upgradePasswordHash re-hashes with the configured costs after a successful
// login. Failures only cost the upgrade, never the login.
func (s *service) upgradePasswordHash(ctx context.Context, user *models.User, password string) {
	if !security.NeedsRehash(user.PasswordHash, s.hashCfg) {
		return
	}
	hash, err := security.HashPassword(password, s.hashCfg)
	if err == nil {
		err = s.users.UpdatePasswordHash(ctx, user.ID, hash)
	}
	if err != nil {
		s.logg.Warn(s.logg.WithField(s.logg.WithAccount(ctx, user.Email), "error", err.Error()), "auth.password_rehash_failed")
		return
	}
	user.PasswordHash = hash
}

func (s *service) Refresh(ctx context.Context, accessToken, refreshToken string) (*Session, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, accessToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid access token")
	}

	newAccessID, newRefresh, err := s.session.Rotate(ctx, claims.ID, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		_ = s.session.Revoke(ctx, newAccessID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, userNotFoundMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	token, err := s.mint(user, newAccessID)
	if err != nil {
		return nil, err
	}
	return &Session{AccessToken: token, RefreshToken: newRefresh, User: users.FromModel(user)}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return nil
	}
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) CurrentUser(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, userNotFoundMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	return users.FromModel(user), nil
}

// issueSession records the login and mints an access token plus refresh session.
func (s *service) issueSession(ctx context.Context, user *models.User) (*Session, error) {
	accessID, accessToken, err := s.openLogin(ctx, user)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.session.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh token")
	}

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         users.FromModel(user),
	}, nil
}

// issueCookieSession is issueSession for browser logins. The session ends
// with the access token and carries no refresh token.
func (s *service) issueCookieSession(ctx context.Context, user *models.User) (*Session, error) {
	accessID, accessToken, err := s.openLogin(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := s.session.GenerateCookie(ctx, accessID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store session")
	}
	return &Session{AccessToken: accessToken, User: users.FromModel(user)}, nil
}

func (s *service) openLogin(ctx context.Context, user *models.User) (string, string, error) {
	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return "", "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	user.LastLoginAt = &now

	accessID := session.NewAccessID()
	accessToken, err := s.mint(user, accessID)
	if err != nil {
		return "", "", err
	}
	return accessID, accessToken, nil
}

func (s *service) mint(user *models.User, accessID string) (string, error) {
	provider := user.Provider
	if !provider.IsValid() {
		provider = enums.AuthProviderLocal
	}
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now().UTC(), pkgAuth.AccessTokenPayload{
		UserID:   user.ID,
		Email:    user.Email,
		Provider: provider,
		JTI:      accessID,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return token, nil
}

func (s *service) emit(ctx context.Context, eventType enums.EventType, user *models.User) {
	id := user.ID
	s.emitter.Emit(ctx, events.Event{Type: eventType, Email: user.Email, UserID: &id})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

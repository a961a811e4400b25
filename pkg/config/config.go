package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	PasswordReset PasswordResetConfig
	AuthRateLimit AuthRateLimitConfig
	OAuth         OAuthConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Sendgrid      SendgridConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DBDriverSQLite
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if cfg.FeatureFlags.PublishEvents && strings.TrimSpace(cfg.GCP.ProjectID) == "" {
		return nil, fmt.Errorf("%s is required when %s is enabled", EnvGCPProjectID, EnvPublishEvents)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SOLECART_APP_ENV" required:"true"`
	Port         string `envconfig:"SOLECART_APP_PORT" default:"7777"`
	LogLevel     string `envconfig:"SOLECART_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"SOLECART_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"SOLECART_LOG_WARN_STACK" default:"false"`
	ClientURL    string `envconfig:"SOLECART_CLIENT_URL" default:"http://localhost:3000/"`
	CORSOrigins  string `envconfig:"SOLECART_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	origins := []string{}
	for _, origin := range strings.Split(a.CORSOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

type DBConfig struct {
	DSN    string `envconfig:"SOLECART_DB_DSN"`
	Driver string `envconfig:"SOLECART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SOLECART_DB_HOST"`
	LegacyPort     int    `envconfig:"SOLECART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SOLECART_DB_USER"`
	LegacyPassword string `envconfig:"SOLECART_DB_PASSWORD"`
	LegacyName     string `envconfig:"SOLECART_DB_NAME"`
	LegacySSLMode  string `envconfig:"SOLECART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SOLECART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SOLECART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SOLECART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SOLECART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"SOLECART_REDIS_URL"`
	Address      string        `envconfig:"SOLECART_REDIS_ADDR"`
	Password     string        `envconfig:"SOLECART_REDIS_PASSWORD"`
	DB           int           `envconfig:"SOLECART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SOLECART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SOLECART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SOLECART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SOLECART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SOLECART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"SOLECART_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"SOLECART_JWT_ISSUER" default:"solecart"`
	ExpirationMinutes      int    `envconfig:"SOLECART_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"SOLECART_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SOLECART_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SOLECART_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SOLECART_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SOLECART_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SOLECART_ARGON_KEY_LEN" default:"32"`
}

type PasswordResetConfig struct {
	TokenLength int           `envconfig:"SOLECART_RESET_TOKEN_LENGTH" default:"20"`
	TokenTTL    time.Duration `envconfig:"SOLECART_RESET_TOKEN_TTL" default:"1h"`
	LinkBaseURL string        `envconfig:"SOLECART_RESET_LINK_BASE_URL" default:"http://localhost:3000/reset-password/"`
}

// Link builds the client-facing reset link for the token.
func (p PasswordResetConfig) Link(token string) string {
	base := p.LinkBaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + url.PathEscape(token)
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"SOLECART_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"SOLECART_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"SOLECART_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"SOLECART_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"SOLECART_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"SOLECART_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
	ResetWindow        time.Duration `envconfig:"SOLECART_AUTH_RATE_LIMIT_RESET_WINDOW" default:"15m"`
	ResetEmailLimit    int           `envconfig:"SOLECART_AUTH_RATE_LIMIT_RESET_EMAIL_LIMIT" default:"3"`
	ResetIPLimit       int           `envconfig:"SOLECART_AUTH_RATE_LIMIT_RESET_IP_LIMIT" default:"10"`
}

type OAuthConfig struct {
	GoogleClientID       string        `envconfig:"SOLECART_OAUTH_GOOGLE_CLIENT_ID"`
	GoogleClientSecret   string        `envconfig:"SOLECART_OAUTH_GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL    string        `envconfig:"SOLECART_OAUTH_GOOGLE_REDIRECT_URL" default:"http://localhost:7777/auth/google/callback"`
	FacebookClientID     string        `envconfig:"SOLECART_OAUTH_FACEBOOK_CLIENT_ID"`
	FacebookClientSecret string        `envconfig:"SOLECART_OAUTH_FACEBOOK_CLIENT_SECRET"`
	FacebookRedirectURL  string        `envconfig:"SOLECART_OAUTH_FACEBOOK_REDIRECT_URL" default:"http://localhost:7777/auth/facebook/callback"`
	StateTTL             time.Duration `envconfig:"SOLECART_OAUTH_STATE_TTL" default:"10m"`
}

// OAuthProviderConfig is the per-provider view of OAuthConfig.
type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Enabled reports whether enough credentials exist to run the flow.
func (o OAuthProviderConfig) Enabled() bool {
	return o.ClientID != "" && o.ClientSecret != "" && o.RedirectURL != ""
}

func (o OAuthConfig) Google() OAuthProviderConfig {
	return OAuthProviderConfig{
		ClientID:     o.GoogleClientID,
		ClientSecret: o.GoogleClientSecret,
		RedirectURL:  o.GoogleRedirectURL,
	}
}

func (o OAuthConfig) Facebook() OAuthProviderConfig {
	return OAuthProviderConfig{
		ClientID:     o.FacebookClientID,
		ClientSecret: o.FacebookClientSecret,
		RedirectURL:  o.FacebookRedirectURL,
	}
}

type FeatureFlagsConfig struct {
	UseSQLite        bool `envconfig:"SOLECART_USE_SQLITE" default:"false"`
	AutoMigrate      bool `envconfig:"SOLECART_AUTO_MIGRATE" default:"false"`
	PublishEvents    bool `envconfig:"SOLECART_PUBLISH_EVENTS" default:"false"`
	ExposeResetToken bool `envconfig:"SOLECART_EXPOSE_RESET_TOKEN" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SOLECART_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"SOLECART_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SOLECART_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	CartTopic string `envconfig:"SOLECART_PUBSUB_CART_TOPIC" default:"solecart-cart-events"`
	AuthTopic string `envconfig:"SOLECART_PUBSUB_AUTH_TOPIC" default:"solecart-auth-events"`
}

type SendgridConfig struct {
	APIKey      string `envconfig:"SOLECART_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"SOLECART_SENDGRID_FROM_EMAIL" default:"no-reply@solecart.local"`
	FromName    string `envconfig:"SOLECART_SENDGRID_FROM_NAME" default:"SoleCart"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	if db.IsSQLite() {
		name := db.LegacyName
		if name == "" {
			name = "solecart"
		}
		db.DSN = fmt.Sprintf("file:%s.db?cache=shared", name)
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}

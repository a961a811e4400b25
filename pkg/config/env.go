package config

const (
	// EnvPrefix is empty because every tag carries its full SOLECART_ name.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	EnvAppEnv                 = "SOLECART_APP_ENV"
	EnvPort                   = "SOLECART_APP_PORT"
	EnvClientURL              = "SOLECART_CLIENT_URL"
	EnvDBDSN                  = "SOLECART_DB_DSN"
	EnvDBDriver               = "SOLECART_DB_DRIVER"
	EnvDBHost                 = "SOLECART_DB_HOST"
	EnvDBUser                 = "SOLECART_DB_USER"
	EnvDBPassword             = "SOLECART_DB_PASSWORD"
	EnvDBName                 = "SOLECART_DB_NAME"
	EnvRedisURL               = "SOLECART_REDIS_URL"
	EnvJWTSecret              = "SOLECART_JWT_SECRET"
	EnvJWTIssuer              = "SOLECART_JWT_ISSUER"
	EnvJWTExpMins             = "SOLECART_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "SOLECART_REFRESH_TOKEN_TTL_MINUTES"
	EnvResetTokenTTL          = "SOLECART_RESET_TOKEN_TTL"
	EnvUseSQLite              = "SOLECART_USE_SQLITE"
	EnvPublishEvents          = "SOLECART_PUBLISH_EVENTS"
	EnvGCPProjectID           = "SOLECART_GCP_PROJECT_ID"
	EnvGoogleClientID         = "SOLECART_OAUTH_GOOGLE_CLIENT_ID"
	EnvGoogleClientSecret     = "SOLECART_OAUTH_GOOGLE_CLIENT_SECRET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Redis    RedisConfig    `mapstructure:"redis"    validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Cache    CacheConfig    `mapstructure:"cache"    validate:"required"`
	Email    EmailConfig    `mapstructure:"email"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// RedisConfig contains connection settings for the key-value store that
// backs token mirror records and the task cache.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" validate:"required"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"   validate:"gte=0"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`

	// TokenLifetimeMinutes is the access token lifetime. Access tokens are
	// short-lived; revocation before expiry goes through the session store.
	TokenLifetimeMinutes int `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`

	// RefreshTokenLifetimeMinutes is the refresh token lifetime, typically days.
	RefreshTokenLifetimeMinutes int `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gt=0"`

	// ResetTokenLifetimeMinutes bounds the password-reset window.
	ResetTokenLifetimeMinutes int `mapstructure:"reset_token_lifetime_minutes" validate:"required,gt=0"`
}

// CacheConfig controls the read-through task cache.
type CacheConfig struct {
	TTLSeconds int `mapstructure:"ttl_seconds" validate:"required,gt=0"`
}

// EmailConfig contains settings for outbound email delivery.
// APIKey may be empty in environments that never send mail (e.g. tests).
type EmailConfig struct {
	APIKey       string `mapstructure:"api_key"`
	FromAddress  string `mapstructure:"from_address"   validate:"omitempty,email"`
	ResetBaseURL string `mapstructure:"reset_base_url" validate:"omitempty,url"`
}

package configuration

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

const minJWTSecretLength = 32

type (
	Properties struct {
		LogLevel  string `env:"LOG_LEVEL" envDefault:"debug"`
		LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

		Server  HttpServerProperties `envPrefix:"HTTP_"`
		DB      DatabaseProperties   `envPrefix:"DB_"`
		Auth    AuthProperties       `envPrefix:"AUTH_"`
		Redis   RedisProperties      `envPrefix:"REDIS_"`
		Storage StorageProperties    `envPrefix:"STORAGE_"`
		S3      S3Properties         `envPrefix:"S3_"`
	}

	HttpServerProperties struct {
		Name            string        `env:"NAME" envDefault:"recipeserv"`
		Port            string        `env:"PORT" envDefault:"8088"`
		ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
		ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
		Pprof           bool          `env:"PPROF" envDefault:"false"`
		CorsOrigins     []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
		MaxUploadBytes  int64         `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
		ReleaseMode     bool          `env:"RELEASE_MODE" envDefault:"false"`
	}

	DatabaseProperties struct {
		Driver   string `env:"DRIVER" envDefault:"postgres"`
		DSN      string `env:"DSN"`
		Host     string `env:"HOST" envDefault:"localhost"`
		Port     string `env:"PORT" envDefault:"5432"`
		User     string `env:"USER" envDefault:"postgres"`
		Password string `env:"PASSWORD"`
		Name     string `env:"NAME" envDefault:"recipes"`
		SSLMode  string `env:"SSLMODE" envDefault:"disable"`
	}

	AuthProperties struct {
		JWTSecret             string        `env:"JWT_SECRET"`
		TokenTTL              time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
		TokenStore            string        `env:"TOKEN_STORE" envDefault:"memory"`
		AccessTokenCookieName string        `env:"ACCESS_COOKIE" envDefault:"cb_access_token"`
		OIDCHost              string        `env:"OIDC_HOST"`
		ID                    string        `env:"ID"`
		Secret                string        `env:"SECRET"`
		Redirect              string        `env:"REDIRECT_URL" envDefault:"http://localhost:8088/callback"`
		AdminEmail            string        `env:"ADMIN_EMAIL"`
		AdminPassword         string        `env:"ADMIN_PASSWORD"`
	}

	RedisProperties struct {
		Addr     string `env:"ADDR" envDefault:"localhost:6379"`
		Password string `env:"PASSWORD"`
		DB       int    `env:"DB" envDefault:"0"`
	}

	StorageProperties struct {
		Backend   string `env:"BACKEND" envDefault:"local"`
		LocalDir  string `env:"LOCAL_DIR" envDefault:"./media"`
		PublicURL string `env:"PUBLIC_URL" envDefault:"/media"`
	}

	S3Properties struct {
		Host      string        `env:"HOST" envDefault:"localhost:9000"`
		AccessKey string        `env:"ACCESS_KEY"`
		SecretKey string        `env:"SECRET_KEY"`
		Bucket    string        `env:"BUCKET" envDefault:"recipes"`
		SSL       bool          `env:"SSL" envDefault:"true"`
		URLExpiry time.Duration `env:"URL_EXPIRY" envDefault:"168h"`
	}
)

// ReadProperties parses the process environment and panics on invalid configuration.
func ReadProperties() *Properties {
	config, err := ParseProperties(nil)
	if err != nil {
		panic(fmt.Errorf("read config error: %w", err))
	}
	return config
}

// ParseProperties parses environ, or the process environment when environ is nil.
func ParseProperties(environ map[string]string) (*Properties, error) {
	config := &Properties{}
	if err := env.Parse(config, env.Options{Environment: environ}); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (p *Properties) Validate() error {
	if len(p.Auth.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("AUTH_JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	switch p.DB.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", p.DB.Driver)
	}
	switch p.Auth.TokenStore {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported AUTH_TOKEN_STORE %q", p.Auth.TokenStore)
	}
	switch p.Storage.Backend {
	case "local", "s3":
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", p.Storage.Backend)
	}
	if p.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("HTTP_MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

// OIDCEnabled reports whether an external identity provider is configured.
func (a AuthProperties) OIDCEnabled() bool {
	return a.OIDCHost != "" && a.ID != ""
}

// PostgresDSN builds the connection string unless DB_DSN overrides it.
func (d DatabaseProperties) PostgresDSN() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/vasapolrittideah/healthify-api/shared/mailer"
	"github.com/vasapolrittideah/healthify-api/shared/security"
	"github.com/vasapolrittideah/healthify-api/shared/sms"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// DefaultEnvFiles lists the dotenv files read at startup. Earlier files win because
// godotenv never overrides a variable that is already set.
var DefaultEnvFiles = []string{".env.new", ".env", "../.env"}

// UserServiceConfig holds the configuration of the user service.
type UserServiceConfig struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Token     TokenConfig
	Hash      HashConfig
	RateLimit RateLimitConfig
	Discovery DiscoveryConfig
	SMS       sms.Config
	Mailer    mailer.Config
}

type ServerConfig struct {
	Port               int      `env:"PORT"                 envDefault:"8000"`
	Environment        string   `env:"APP_ENV"              envDefault:"development"`
	LogLevel           string   `env:"LOG_LEVEL"            envDefault:"info"`
	DebugErrors        bool     `env:"DEBUG_ERRORS"         envDefault:"false"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"    envSeparator:","`
	GRPCHealthPort     int      `env:"GRPC_HEALTH_PORT"     envDefault:"0"`
	TrustProxyHeaders  bool     `env:"TRUST_PROXY_HEADERS"  envDefault:"false"`
}

type DatabaseConfig struct {
	Driver  string        `env:"DATABASE_DRIVER"  envDefault:"mongo"`
	URI     string        `env:"MONGODB_URI"`
	Name    string        `env:"MONGODB_DATABASE" envDefault:"healthify"`
	Timeout time.Duration `env:"MONGODB_TIMEOUT"  envDefault:"10s"`
}

type TokenConfig struct {
	Secret    string        `env:"JWT_SECRET"`
	Issuer    string        `env:"JWT_ISSUER"     envDefault:"healthify-api"`
	Audience  string        `env:"JWT_AUDIENCE"   envDefault:"healthify-app"`
	ExpiresIn time.Duration `env:"JWT_EXPIRES_IN" envDefault:"168h"`
}

type HashConfig struct {
	Algorithm  string `env:"HASH_ALGORITHM" envDefault:"bcrypt"`
	BcryptCost int    `env:"BCRYPT_COST"    envDefault:"12"`
}

type RateLimitConfig struct {
	Auth string `env:"RATE_LIMIT_AUTH" envDefault:"20-M"`
}

type DiscoveryConfig struct {
	ConsulAddr     string `env:"CONSUL_ADDR"`
	ServiceName    string `env:"SERVICE_NAME"    envDefault:"user-service"`
	ServiceAddress string `env:"SERVICE_ADDRESS" envDefault:"localhost"`
}

// Load reads the dotenv files in DefaultEnvFiles and then parses the environment.
func Load() (*UserServiceConfig, error) {
	return LoadFrom(DefaultEnvFiles...)
}

// LoadFrom reads the given dotenv files, skipping the ones that do not exist, and then
// parses the environment.
func LoadFrom(files ...string) (*UserServiceConfig, error) {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	cfg, err := env.ParseAs[UserServiceConfig]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *UserServiceConfig) validate() error {
	if c.Token.Secret == "" {
		return errors.New("missing JWT_SECRET environment variable")
	}
	if c.Token.ExpiresIn <= 0 {
		return errors.New("JWT_EXPIRES_IN must be positive")
	}

	switch c.Database.Driver {
	case DriverMongo:
		if c.Database.URI == "" {
			return errors.New("missing MONGODB_URI environment variable")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.Database.Driver)
	}

	switch security.Algorithm(c.Hash.Algorithm) {
	case security.AlgorithmBcrypt, security.AlgorithmArgon2id:
	default:
		return fmt.Errorf("unsupported HASH_ALGORITHM %q", c.Hash.Algorithm)
	}
	if c.Hash.BcryptCost < security.MinProductionBcryptCost {
		return fmt.Errorf("BCRYPT_COST must be at least %d", security.MinProductionBcryptCost)
	}

	return nil
}

// IsDevelopment reports whether the service runs in the development environment.
func (c *UserServiceConfig) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// ExposeErrorDetails reports whether error responses may carry internal error details.
// Only DEBUG_ERRORS turns this on; APP_ENV has no effect.
func (c *UserServiceConfig) ExposeErrorDetails() bool {
	return c.Server.DebugErrors
}

// PasswordHasherConfig converts the hash settings into a security.Config.
func (c *UserServiceConfig) PasswordHasherConfig() security.Config {
	return security.Config{
		Algorithm:  security.Algorithm(c.Hash.Algorithm),
		BcryptCost: c.Hash.BcryptCost,
	}
}

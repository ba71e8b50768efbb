package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	ServerPort     string   `env:"SERVER_PORT" envDefault:"9000"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`
	StoreDriver    string   `env:"STORE_DRIVER" envDefault:"postgres"`
	CityListPolicy string   `env:"CITY_LIST_POLICY" envDefault:"all"`
	CORSOrigins    []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	MarkerPalette  []string `env:"MARKER_PALETTE" envSeparator:"," envDefault:"#3a2ef0,#1fbf2f,#c91a20,#b21ee8,#d68915,#c4c21f,#17a2b8,#e83e8c"`

	DB        DBConfig        `envPrefix:"DB_"`
	Auth      AuthConfig
	S3        S3Config        `envPrefix:"S3_"`
	Geocoding GeocodingConfig `envPrefix:"GEOCODING_"`
}

type DBConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     string `env:"PORT" envDefault:"5432"`
	User     string `env:"USER" envDefault:"travelshare"`
	Password string `env:"PASSWORD" envDefault:"travelshare_dev_password"`
	Name     string `env:"NAME" envDefault:"travelshare"`
	Migrate  bool   `env:"MIGRATE" envDefault:"true"`
}

type AuthConfig struct {
	JWTSecret    string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	TokenTTL     time.Duration `env:"TOKEN_TTL" envDefault:"720h"`
	CookieSecure bool          `env:"COOKIE_SECURE" envDefault:"false"`
}

type S3Config struct {
	Endpoint  string `env:"ENDPOINT"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Bucket    string `env:"BUCKET" envDefault:"travelshare"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"true"`
	PublicURL string `env:"PUBLIC_URL"`
}

// Enabled reports whether an object storage endpoint is configured.
func (c S3Config) Enabled() bool {
	return c.Endpoint != ""
}

type GeocodingConfig struct {
	URL     string        `env:"URL" envDefault:"https://maps.googleapis.com/maps/api/geocode/json?address="`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

// DSN returns the postgres connection string for the configured database.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", c.User, c.Password, c.Host, c.Port, c.Name)
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	switch cfg.StoreDriver {
	case "postgres", "memory":
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	return cfg, nil
}

package transport

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config provides environment-based configuration for the API transport.
type Config struct {
	BaseURL        string        `env:"BOOKING_API_BASE_URL" envDefault:"http://localhost:8080"`
	CSRFTokenPath  string        `env:"BOOKING_API_CSRF_TOKEN_PATH" envDefault:"/api/v1/csrf-token"`
	LoginPath      string        `env:"BOOKING_API_LOGIN_PATH" envDefault:"/api/v1/auth/login"`
	LogoutPath     string        `env:"BOOKING_API_LOGOUT_PATH" envDefault:"/api/v1/auth/logout"`
	RefreshPath    string        `env:"BOOKING_API_REFRESH_PATH" envDefault:"/api/v1/auth/refresh"`
	RequestTimeout time.Duration `env:"BOOKING_API_REQUEST_TIMEOUT" envDefault:"30s"`
}

// DefaultConfig returns a Config pointed at a local backend.
func DefaultConfig() Config {
	return Config{
		BaseURL:        "http://localhost:8080",
		CSRFTokenPath:  "/api/v1/csrf-token",
		LoginPath:      "/api/v1/auth/login",
		LogoutPath:     "/api/v1/auth/logout",
		RefreshPath:    "/api/v1/auth/refresh",
		RequestTimeout: 30 * time.Second,
	}
}

// LoadConfig reads the configuration from environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

package boot

import (
	"context"
	"fmt"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Env         string `env:"ENV,default=dev"`
	Port        string `env:"PORT,default=8080"`
	MetricsPort string `env:"METRICS_PORT,default=8081"`
	StaticDir   string `env:"STATIC_DIR,default=./static"`
	ViewsDir    string `env:"VIEWS_DIR,default=./ui/views"`

	Database struct {
		Type string `env:"DB_TYPE,default=sqlite"`
		DSN  string `env:"DB_DSN,default=data/guppy.db"`
	}

	CachePath string `env:"CACHE_PATH,default=data/cache"`

	// TokenSecret signs the session cookie wrapping the bearer secret.
	TokenSecret string `env:"TOKEN_SECRET,default=guppy-dev-secret"`

	RegistrationDisabled bool   `env:"REGISTRATION_DISABLED,default=false"`
	InviteCodes          string `env:"INVITE_CODES"` // comma-separated; empty disables the gate
}

func Load() (*Config, error) {
	config := &Config{}
	if err := envconfig.Process(context.Background(), config); err != nil {
		return nil, fmt.Errorf("parsing env vars: %w", err)
	}
	return config, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "prod"
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "dev"
}

// InviteCodeValid reports whether code is in the configured set. An empty
// configuration means no invite code is required.
func (c *Config) InviteCodeValid(code string) bool {
	if c.InviteCodes == "" {
		return true
	}
	for _, candidate := range strings.Split(c.InviteCodes, ",") {
		if strings.TrimSpace(candidate) == code {
			return true
		}
	}
	return false
}

// AngelaMos | 2026
// config.go

package config

import (
	"errors"
	"fmt"
	"maps"
	"net"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	JWT       JWTConfig       `koanf:"jwt"`
	Auth      AuthConfig      `koanf:"auth"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	CORS      CORSConfig      `koanf:"cors"`
	Log       LogConfig       `koanf:"log"`
	Otel      OtelConfig      `koanf:"otel"`
	Metrics   MetricsConfig   `koanf:"metrics"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	MigrateOnStart  bool          `koanf:"migrate_on_start"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

type JWTConfig struct {
	PrivateKeyPath     string        `koanf:"private_key_path"`
	PublicKeyPath      string        `koanf:"public_key_path"`
	AccessTokenExpire  time.Duration `koanf:"access_token_expire"`
	RefreshTokenExpire time.Duration `koanf:"refresh_token_expire"`
	Issuer             string        `koanf:"issuer"`
	Audience           string        `koanf:"audience"`
}

type AuthConfig struct {
	// AllowRoleSelection lets registration honour a client-supplied role.
	AllowRoleSelection bool `koanf:"allow_role_selection"`
}

type RateLimitConfig struct {
	Requests     int           `koanf:"requests"`
	Window       time.Duration `koanf:"window"`
	Burst        int           `koanf:"burst"`
	AuthRequests int           `koanf:"auth_requests"`
	AuthBurst    int           `koanf:"auth_burst"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// defaults lists every known key by section. The environment can only
// override keys that appear here.
var defaults = map[string]map[string]any{
	"app": {
		"name":        "Recipe Shop",
		"version":     "1.0.0",
		"environment": "development",
	},
	"server": {
		"host":             "0.0.0.0",
		"port":             8080,
		"read_timeout":     "30s",
		"write_timeout":    "30s",
		"idle_timeout":     "120s",
		"shutdown_timeout": "15s",
	},
	"database": {
		"url":                "",
		"max_open_conns":     25,
		"max_idle_conns":     5,
		"conn_max_lifetime":  "1h",
		"conn_max_idle_time": "30m",
		"migrate_on_start":   false,
	},
	"redis": {
		"url":            "",
		"pool_size":      10,
		"min_idle_conns": 5,
	},
	"jwt": {
		"private_key_path":     "keys/private.pem",
		"public_key_path":      "keys/public.pem",
		"access_token_expire":  "15m",
		"refresh_token_expire": "168h",
		"issuer":               "recipe-shop",
		"audience":             "recipe-shop-api",
	},
	"auth": {
		"allow_role_selection": true,
	},
	"rate_limit": {
		"requests":      100,
		"window":        "1m",
		"burst":         20,
		"auth_requests": 10,
		"auth_burst":    5,
	},
	"cors": {
		"allowed_origins":   []string{"http://localhost:3000"},
		"allowed_methods":   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		"allowed_headers":   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		"allow_credentials": true,
		"max_age":           300,
	},
	"log": {
		"level":  "info",
		"format": "json",
	},
	"otel": {
		"endpoint":     "",
		"service_name": "recipe-shop",
		"enabled":      false,
		"insecure":     true,
		"sample_rate":  0.1,
	},
	"metrics": {
		"enabled": true,
		"path":    "/metrics",
	},
}

// envAliases are conventional variable names that do not follow the
// SECTION_FIELD pattern.
var envAliases = map[string]string{
	"ENVIRONMENT":                 "app.environment",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
}

// Load layers the defaults, the optional YAML file at path and then the
// environment. Every known key can be set from a variable named after it,
// so rate_limit.auth_burst reads RATE_LIMIT_AUTH_BURST.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	envKeys := make(map[string]string, len(envAliases))
	maps.Copy(envKeys, envAliases)

	for section, fields := range defaults {
		for field, value := range fields {
			key := section + "." + field
			if err := k.Set(key, value); err != nil {
				return nil, fmt.Errorf("default %s: %w", key, err)
			}
			envKeys[strings.ToUpper(strings.ReplaceAll(key, ".", "_"))] = key
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	fromEnv := env.Provider("", ".", func(name string) string {
		return envKeys[name]
	})
	if err := k.Load(fromEnv, nil); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	var c Config
	if err := k.Unmarshal("", &c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &c, nil
}

// validate reports every problem at once.
func (c *Config) validate() error {
	var errs []error
	check := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, errors.New(msg))
		}
	}

	check(c.Database.URL != "", "DATABASE_URL is required")
	check(c.Redis.URL != "", "REDIS_URL is required")
	check(c.JWT.PrivateKeyPath != "", "JWT_PRIVATE_KEY_PATH is required")
	check(c.JWT.AccessTokenExpire > 0, "jwt.access_token_expire must be positive")
	check(c.JWT.RefreshTokenExpire > c.JWT.AccessTokenExpire,
		"jwt.refresh_token_expire must exceed the access token lifetime")
	check(c.Server.ReadTimeout > 0, "server.read_timeout must be positive")
	check(c.Server.WriteTimeout > 0, "server.write_timeout must be positive")
	check(c.RateLimit.Window > 0, "rate_limit.window must be positive")
	check(!c.CORS.AllowCredentials || !slices.Contains(c.CORS.AllowedOrigins, "*"),
		"cors: wildcard origin cannot be combined with credentials")
	check(!c.IsProduction() || !c.Otel.Enabled || !c.Otel.Insecure,
		"OTEL_INSECURE must be false in production")

	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (s *ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

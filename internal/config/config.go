package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const configPathEnv = "CONFIG_FILE"

// Defaults for the hardcoded business rules of the original system.
// They are configuration, not structural invariants.
const (
	defaultMaxMetersPerAddress = 4
	defaultAddressesPerAgent   = 300
)

// Config holds the full service configuration. Values come from an
// optional YAML file (CONFIG_FILE) overridden by environment
// variables.
type Config struct {
	HTTP struct {
		Port string `yaml:"port"`
	} `yaml:"http"`
	Database struct {
		DSN string `yaml:"dsn"`
	} `yaml:"database"`
	Redis struct {
		Addr       string `yaml:"addr"`
		Password   string `yaml:"password"`
		TTLSeconds int    `yaml:"ttlSeconds"`
	} `yaml:"redis"`
	Auth struct {
		JWTSecret       string `yaml:"jwtSecret"`
		TokenTTLMinutes int    `yaml:"tokenTtlMinutes"`
		BcryptCost      int    `yaml:"bcryptCost"`
	} `yaml:"auth"`
	Billing struct {
		BaseURL        string `yaml:"baseUrl"`
		TimeoutSeconds int    `yaml:"timeoutSeconds"`
	} `yaml:"billing"`
	Limits struct {
		MaxMetersPerAddress int `yaml:"maxMetersPerAddress"`
		AddressesPerAgent   int `yaml:"addressesPerAgent"`
	} `yaml:"limits"`
}

// Load builds the configuration from file and environment.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8080"
	cfg.Redis.TTLSeconds = 60
	cfg.Auth.TokenTTLMinutes = 60
	cfg.Billing.TimeoutSeconds = 5
	cfg.Limits.MaxMetersPerAddress = defaultMaxMetersPerAddress
	cfg.Limits.AddressesPerAgent = defaultAddressesPerAgent

	if path := os.Getenv(configPathEnv); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: decode yaml: %w", err)
		}
	}

	overrideString(&cfg.HTTP.Port, "HTTP_PORT")
	overrideString(&cfg.Database.DSN, "POSTGRES_DSN")
	overrideString(&cfg.Redis.Addr, "REDIS_ADDR")
	overrideString(&cfg.Redis.Password, "REDIS_PASSWORD")
	if err := overrideInt(&cfg.Redis.TTLSeconds, "REDIS_TTL_SECONDS"); err != nil {
		return nil, err
	}
	overrideString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	if err := overrideInt(&cfg.Auth.TokenTTLMinutes, "JWT_TTL_MINUTES"); err != nil {
		return nil, err
	}
	if err := overrideInt(&cfg.Auth.BcryptCost, "BCRYPT_COST"); err != nil {
		return nil, err
	}
	overrideString(&cfg.Billing.BaseURL, "BILLING_BASE_URL")
	if err := overrideInt(&cfg.Billing.TimeoutSeconds, "BILLING_TIMEOUT_SECONDS"); err != nil {
		return nil, err
	}
	if err := overrideInt(&cfg.Limits.MaxMetersPerAddress, "MAX_METERS_PER_ADDRESS"); err != nil {
		return nil, err
	}
	if err := overrideInt(&cfg.Limits.AddressesPerAgent, "ADDRESSES_PER_AGENT"); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database dsn required")
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return nil, errors.New("config: jwt secret required")
	}
	if cfg.Limits.MaxMetersPerAddress <= 0 || cfg.Limits.AddressesPerAgent <= 0 {
		return nil, errors.New("config: limits must be positive")
	}
	return cfg, nil
}

func overrideString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		*target = val
	}
}

func overrideInt(target *int, key string) error {
	val, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("config: parse %s: %w", key, err)
	}
	*target = parsed
	return nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// StatsCacheTTL returns the dashboard cache TTL as a duration.
func (c *Config) StatsCacheTTL() time.Duration {
	if c.Redis.TTLSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.Redis.TTLSeconds) * time.Second
}

// TokenTTL returns the JWT lifetime as a duration.
func (c *Config) TokenTTL() time.Duration {
	if c.Auth.TokenTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.Auth.TokenTTLMinutes) * time.Minute
}

// BillingTimeout bounds the best-effort notification call.
func (c *Config) BillingTimeout() time.Duration {
	if c.Billing.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Billing.TimeoutSeconds) * time.Second
}

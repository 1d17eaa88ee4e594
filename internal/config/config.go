package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bryanwahyu/automaton-iam/internal/domain/accounts"
	"github.com/bryanwahyu/automaton-iam/internal/domain/licensing"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"database"`

	// Audit is an optional Postgres mirror for sync runs and findings,
	// kept for compliance retention. Reads stay on the primary store.
	Audit struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"audit"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	OpenAI struct {
		APIKey string `yaml:"apiKey"`
		Model  string `yaml:"model"`
	} `yaml:"openai"`

	Sync struct {
		Workers         int `yaml:"workers"`
		IntervalMinutes int `yaml:"intervalMinutes"` // 0 = on-demand only
		InactivityDays  int `yaml:"inactivityDays"`  // ghost threshold, default 90
	} `yaml:"sync"`

	Recommendations struct {
		CriticalMonthlySavings float64 `yaml:"criticalMonthlySavings"`
	} `yaml:"recommendations"`

	// Tenants and their per-platform bearer credentials, as handed over by
	// the external connector layer.
	Tenants []TenantConfig `yaml:"tenants"`

	// Feeds point at the collector endpoints serving raw platform records.
	// The collector derives the tenant from the bearer credential.
	Feeds map[string]FeedConfig `yaml:"feeds"`

	// Pricing/threshold tables per platform. Read-only input; callers
	// hot-reload by calling Load again between runs.
	Pricing map[string]licensing.PricingTable `yaml:"pricing"`
}

type TenantConfig struct {
	ID        string            `yaml:"id"`
	Platforms map[string]string `yaml:"platforms"` // platform -> token
}

type FeedConfig struct {
	URL string `yaml:"url"`
	// Path reads a JSON dump instead of a collector endpoint
	Path string `yaml:"path"`
}

// Load baca file config.yaml
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	for name := range cfg.Pricing {
		if !accounts.Platform(name).Valid() {
			return nil, fmt.Errorf("pricing: unknown platform %q", name)
		}
	}
	for name := range cfg.Feeds {
		if !accounts.Platform(name).Valid() {
			return nil, fmt.Errorf("feeds: unknown platform %q", name)
		}
	}
	for _, t := range cfg.Tenants {
		for name := range t.Platforms {
			if !accounts.Platform(name).Valid() {
				return nil, fmt.Errorf("tenant %s: unknown platform %q", t.ID, name)
			}
		}
	}
	return &cfg, nil
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres (audit mirror)
func (c *Config) AuditDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Audit.Host,
		c.Audit.Port,
		c.Audit.User,
		c.Audit.Password,
		c.Audit.Name,
	)
}

// InactivityThreshold returns the ghost threshold as a duration
func (c *Config) InactivityThreshold() time.Duration {
	days := c.Sync.InactivityDays
	if days <= 0 {
		days = 90
	}
	return time.Duration(days) * 24 * time.Hour
}

// PricingTables keyed by platform enum
func (c *Config) PricingTables() map[accounts.Platform]licensing.PricingTable {
	out := make(map[accounts.Platform]licensing.PricingTable, len(c.Pricing))
	for name, table := range c.Pricing {
		out[accounts.Platform(name)] = table
	}
	return out
}

// CredentialTokens keyed by tenant then platform, for the static connector
func (c *Config) CredentialTokens() map[string]map[accounts.Platform]string {
	out := make(map[string]map[accounts.Platform]string, len(c.Tenants))
	for _, t := range c.Tenants {
		byPlatform := make(map[accounts.Platform]string, len(t.Platforms))
		for name, token := range t.Platforms {
			byPlatform[accounts.Platform(name)] = token
		}
		out[t.ID] = byPlatform
	}
	return out
}

// TenantIDs in config order
func (c *Config) TenantIDs() []string {
	out := make([]string, 0, len(c.Tenants))
	for _, t := range c.Tenants {
		out = append(out, t.ID)
	}
	return out
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bryanwahyu/automaton-iam/internal/domain/accounts"
)

const sampleYAML = `
server:
  port: 8080
database:
  host: localhost
  port: 3306
  user: iam
  password: secret
  name: iam
audit:
  enabled: true
  host: localhost
  port: 5432
  user: audit
  password: secret
  name: iam_audit
sync:
  workers: 2
  inactivityDays: 60
tenants:
  - id: acme
    platforms:
      slack: tok-1
      github: expired
feeds:
  slack:
    url: http://collector:9000/slack
  github:
    path: /var/feeds/github.json
pricing:
  slack:
    currency: USD
    tiers:
      business: 15
      pro: 8
    downgrades:
      business: pro
    featureUsageThreshold: 30
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if !cfg.Audit.Enabled {
		t.Errorf("audit mirror should be enabled")
	}
	if got := cfg.MySQLDSN(); got != "iam:secret@tcp(localhost:3306)/iam?parseTime=true&charset=utf8mb4&loc=UTC" {
		t.Errorf("mysql dsn = %q", got)
	}
	if got := cfg.InactivityThreshold(); got.Hours() != 60*24 {
		t.Errorf("threshold = %v, want 60 days", got)
	}

	tokens := cfg.CredentialTokens()
	if tokens["acme"][accounts.PlatformSlack] != "tok-1" {
		t.Errorf("tokens = %v", tokens)
	}

	pricing := cfg.PricingTables()
	table, ok := pricing[accounts.PlatformSlack]
	if !ok || table.SeatCost("business") != 15 || table.DowngradeTarget("business") != "pro" {
		t.Errorf("pricing = %+v", table)
	}

	if cfg.Feeds["slack"].URL == "" || cfg.Feeds["github"].Path == "" {
		t.Errorf("feeds = %+v", cfg.Feeds)
	}
}

func TestLoadDefaultThreshold(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 1\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := cfg.InactivityThreshold(); got.Hours() != 90*24 {
		t.Errorf("default threshold = %v, want 90 days", got)
	}
}

func TestLoadRejectsUnknownPlatform(t *testing.T) {
	bad := `
feeds:
  myspace:
    url: http://x
`
	if _, err := Load(writeConfig(t, bad)); err == nil {
		t.Fatalf("unknown platform in feeds must be rejected at load time")
	}
}

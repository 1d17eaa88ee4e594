package accounts

import (
	"sort"
	"strings"
	"time"
)

// Platform enum
type Platform string

const (
	PlatformGoogleWorkspace Platform = "google_workspace"
	PlatformSlack           Platform = "slack"
	PlatformGitHub          Platform = "github"
	PlatformZoom            Platform = "zoom"
	PlatformAWS             Platform = "aws"
)

// AllPlatforms returns every supported platform in stable order
func AllPlatforms() []Platform {
	return []Platform{
		PlatformGoogleWorkspace,
		PlatformSlack,
		PlatformGitHub,
		PlatformZoom,
		PlatformAWS,
	}
}

func (p Platform) Valid() bool {
	switch p {
	case PlatformGoogleWorkspace, PlatformSlack, PlatformGitHub, PlatformZoom, PlatformAWS:
		return true
	}
	return false
}

// Lifecycle enum. Accounts are soft-deleted: sebuah akun yang hilang dari
// fetch terakhir ditandai inactive, tidak pernah dihapus.
type Lifecycle string

const (
	LifecycleActive   Lifecycle = "active"
	LifecycleInactive Lifecycle = "inactive"
)

// Account is the normalized per-platform account shape. One row per
// (tenant, platform, native id); replaced wholesale on each successful sync.
type Account struct {
	TenantID     string     `json:"tenant_id"`
	Platform     Platform   `json:"platform"`
	NativeID     string     `json:"native_id"`
	Email        string     `json:"email,omitempty"` // normalized; empty = platform never exposed one
	DisplayName  string     `json:"display_name,omitempty"`
	IsAdmin      bool       `json:"is_admin"`
	Suspended    bool       `json:"suspended"`
	StrongAuth   *bool      `json:"strong_auth,omitempty"` // nil = platform does not expose the flag
	LastActivity *time.Time `json:"last_activity,omitempty"`
	LicenseTier  string     `json:"license_tier,omitempty"`
	FeatureUsage *float64   `json:"feature_usage,omitempty"` // percent, where the platform reports one
	Lifecycle    Lifecycle  `json:"lifecycle"`
	SyncedAt     time.Time  `json:"synced_at"`
}

// NormalizeEmail is the cross-platform join key: lower-cased and trimmed.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// RawRecord is one vendor payload object as fetched by the external API client.
type RawRecord map[string]any

// SortPlatforms sorts in place for deterministic output
func SortPlatforms(ps []Platform) {
	sort.Slice(ps, func(i, j int) bool { return ps[i] < ps[j] })
}

package identity

import (
	"time"

	"github.com/bryanwahyu/automaton-iam/internal/domain/accounts"
)

// Slot is the embedded snapshot of one platform's account inside an
// identity. Absence of a slot is a first-class state: a platform the tenant
// never synced simply has no entry in the map.
type Slot struct {
	NativeID     string             `json:"native_id"`
	Email        string             `json:"email"`
	DisplayName  string             `json:"display_name,omitempty"`
	IsAdmin      bool               `json:"is_admin"`
	Suspended    bool               `json:"suspended"`
	StrongAuth   *bool              `json:"strong_auth,omitempty"`
	LastActivity *time.Time         `json:"last_activity,omitempty"`
	LicenseTier  string             `json:"license_tier,omitempty"`
	FeatureUsage *float64           `json:"feature_usage,omitempty"`
	Lifecycle    accounts.Lifecycle `json:"lifecycle"`
	SyncedAt     time.Time          `json:"synced_at"`
}

// GhostStatus derived block, owned by the ghost detector
type GhostStatus struct {
	IsGhost                bool                `json:"is_ghost"`
	NeverLoggedInPlatforms []accounts.Platform `json:"never_logged_in_platforms,omitempty"`
	InactiveDays           int                 `json:"inactive_days"`
	LastCalculated         time.Time           `json:"last_calculated"`
}

// RiskSummary derived block, owned by the risk scorer
type RiskSummary struct {
	OpenFindings   int       `json:"open_findings"`
	MaxScore       int       `json:"max_score"`
	Critical       int       `json:"critical"`
	High           int       `json:"high"`
	Medium         int       `json:"medium"`
	Low            int       `json:"low"`
	LastCalculated time.Time `json:"last_calculated"`
}

// WasteSummary derived block, owned by the license waste calculator
type WasteSummary struct {
	MonthlyWaste    float64             `json:"monthly_waste"`
	Currency        string              `json:"currency,omitempty"`
	WastedPlatforms []accounts.Platform `json:"wasted_platforms,omitempty"`
	LastCalculated  time.Time           `json:"last_calculated"`
}

// Aggregate Root: Identity. Exactly one per (tenant, normalized email).
// An identity with zero populated slots is invalid and must not persist.
type Identity struct {
	TenantID        string                           `json:"tenant_id"`
	Email           string                           `json:"email"`
	Platforms       map[accounts.Platform]*Slot      `json:"platforms"`
	Ghost           GhostStatus                      `json:"ghost"`
	Risk            RiskSummary                      `json:"risk"`
	Waste           WasteSummary                     `json:"waste"`
	FirstResolvedAt time.Time                        `json:"first_resolved_at"`
	LastResolvedAt  time.Time                        `json:"last_resolved_at"`
}

// SlotFromAccount builds the embedded snapshot from a normalized account
func SlotFromAccount(a *accounts.Account) *Slot {
	return &Slot{
		NativeID:     a.NativeID,
		Email:        a.Email,
		DisplayName:  a.DisplayName,
		IsAdmin:      a.IsAdmin,
		Suspended:    a.Suspended,
		StrongAuth:   a.StrongAuth,
		LastActivity: a.LastActivity,
		LicenseTier:  a.LicenseTier,
		FeatureUsage: a.FeatureUsage,
		Lifecycle:    a.Lifecycle,
		SyncedAt:     a.SyncedAt,
	}
}

// Valid reports whether the record is structurally usable by a derivation
// pass. Invalid records are treated as malformed and excluded, not fatal.
func (i *Identity) Valid() bool {
	return i != nil && i.TenantID != "" && i.Email != "" && len(i.Platforms) > 0
}

// PlatformNames returns the populated platforms in stable order
func (i *Identity) PlatformNames() []accounts.Platform {
	out := make([]accounts.Platform, 0, len(i.Platforms))
	for p := range i.Platforms {
		out = append(out, p)
	}
	accounts.SortPlatforms(out)
	return out
}

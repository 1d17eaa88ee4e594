package risks

import (
	"fmt"
	"time"

	"github.com/bryanwahyu/automaton-iam/internal/domain/accounts"
)

// RiskType enum
type RiskType string

const (
	RiskAdminWithout2FA      RiskType = "admin_without_2fa"
	RiskSuspendedWithAccess  RiskType = "suspended_with_access"
	RiskExcessivePermissions RiskType = "excessive_permissions"
	RiskInactiveAdmin        RiskType = "inactive_admin"
	RiskSharedAccount        RiskType = "shared_account"
)

// Severity enum
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Status enum. Resolving is an explicit external action; stale means the
// scorer stopped detecting the condition and closed the finding itself.
type Status string

const (
	StatusOpen     Status = "open"
	StatusResolved Status = "resolved"
	StatusStale    Status = "stale"
)

// Aggregate Root: Finding. (tenant, user, platform, riskType) identifies the
// open finding; resolved ones stay behind as history.
type Finding struct {
	ID          string            `json:"id"`
	TenantID    string            `json:"tenant_id"`
	UserEmail   string            `json:"user_email"`
	Platform    accounts.Platform `json:"platform"`
	Type        RiskType          `json:"type"`
	Severity    Severity          `json:"severity"`
	Score       int               `json:"score"`
	Status      Status            `json:"status"`
	Detail      string            `json:"detail,omitempty"`
	DetectedAt  time.Time         `json:"detected_at"`
	LastChecked time.Time         `json:"last_checked"`
	ResolvedAt  *time.Time        `json:"resolved_at,omitempty"`
	ResolvedBy  string            `json:"resolved_by,omitempty"`
}

// Key is the dedupe identity of a finding
func (f *Finding) Key() string {
	return fmt.Sprintf("%s|%s|%s|%s", f.TenantID, f.UserEmail, f.Platform, f.Type)
}

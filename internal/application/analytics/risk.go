package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bryanwahyu/automaton-iam/internal/domain/accounts"
	"github.com/bryanwahyu/automaton-iam/internal/domain/identity"
	"github.com/bryanwahyu/automaton-iam/internal/domain/risks"
)

// excessiveAdminPlatforms: admin on this many platforms or more flags
// excessive permissions
const excessiveAdminPlatforms = 3

// sharedLocalParts are role-mailbox prefixes that mark an account as shared
// rather than personal
var sharedLocalParts = map[string]bool{
	"admin": true, "administrator": true, "info": true, "support": true,
	"team": true, "ops": true, "billing": true, "root": true,
	"noreply": true, "no-reply": true, "hello": true,
}

// ScoreRisks evaluates the fixed rule set per identity per populated slot
// and returns candidate findings, all open with DetectedAt/LastChecked set
// to now. Deterministic; dedupe against the store happens in
// ReconcileFindings. Structurally invalid identities are skipped.
func ScoreRisks(ids []*identity.Identity, now time.Time, threshold time.Duration) []*risks.Finding {
	if threshold <= 0 {
		threshold = DefaultInactivityThreshold
	}
	var out []*risks.Finding
	for _, id := range ids {
		if !id.Valid() {
			continue
		}
		out = append(out, scoreIdentity(id, now, threshold)...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

func scoreIdentity(id *identity.Identity, now time.Time, threshold time.Duration) []*risks.Finding {
	var out []*risks.Finding

	emit := func(p accounts.Platform, t risks.RiskType, sev risks.Severity, detail string) {
		out = append(out, &risks.Finding{
			TenantID:    id.TenantID,
			UserEmail:   id.Email,
			Platform:    p,
			Type:        t,
			Severity:    sev,
			Score:       risks.ScoreFor(sev, p),
			Status:      risks.StatusOpen,
			Detail:      detail,
			DetectedAt:  now,
			LastChecked: now,
		})
	}

	adminCount := 0
	for _, slot := range id.Platforms {
		if slot.IsAdmin && slot.Lifecycle == accounts.LifecycleActive {
			adminCount++
		}
	}

	local := id.Email
	if i := strings.IndexByte(local, '@'); i >= 0 {
		local = local[:i]
	}
	shared := sharedLocalParts[local] && len(id.Platforms) >= 2

	for _, p := range id.PlatformNames() {
		slot := id.Platforms[p]

		// admin without verified strong auth: a nil flag (platform does not
		// expose one) counts as absent
		if slot.IsAdmin && !(slot.StrongAuth != nil && *slot.StrongAuth) {
			emit(p, risks.RiskAdminWithout2FA, risks.AdminSeverity(p),
				"administrator account without verified strong authentication")
		}

		// suspended yet still enumerated as present: the platform never
		// revoked the underlying access
		if slot.Suspended && slot.Lifecycle == accounts.LifecycleActive {
			emit(p, risks.RiskSuspendedWithAccess, risks.SeverityHigh,
				"suspended account still holds platform access")
		}

		if slot.IsAdmin && !slot.Suspended && slotGhost(slot, now, threshold) {
			emit(p, risks.RiskInactiveAdmin, risks.SeverityHigh,
				"administrator with no recent activity")
		}

		if slot.IsAdmin && slot.Lifecycle == accounts.LifecycleActive && adminCount >= excessiveAdminPlatforms {
			emit(p, risks.RiskExcessivePermissions, risks.SeverityMedium,
				fmt.Sprintf("administrator on %d platforms", adminCount))
		}

		if shared {
			emit(p, risks.RiskSharedAccount, risks.SeverityMedium,
				"role mailbox shared across platforms")
		}
	}
	return out
}

// ReconcileFindings merges candidates against stored findings:
//   - an open finding for the same key is refreshed in place (same id, same
//     DetectedAt, new score and LastChecked), never duplicated
//   - a key with only resolved history gets a brand-new finding: the
//     condition re-triggered
//   - resolved findings are never touched
//   - an open finding whose condition no longer holds is closed as stale
//
// Returns the findings that need saving. newID mints finding ids.
func ReconcileFindings(existing, candidates []*risks.Finding, now time.Time, newID func() string) []*risks.Finding {
	open := make(map[string]*risks.Finding)
	for _, f := range existing {
		if f.Status == risks.StatusOpen {
			open[f.Key()] = f
		}
	}

	var toSave []*risks.Finding
	matched := make(map[string]bool)
	for _, c := range candidates {
		key := c.Key()
		matched[key] = true
		if cur, ok := open[key]; ok {
			cur.Severity = c.Severity
			cur.Score = c.Score
			cur.Detail = c.Detail
			cur.LastChecked = now
			toSave = append(toSave, cur)
			continue
		}
		// no open finding: fresh detection (possibly after an earlier
		// resolution)
		f := *c
		f.ID = newID()
		toSave = append(toSave, &f)
	}

	for key, cur := range open {
		if matched[key] {
			continue
		}
		cur.Status = risks.StatusStale
		cur.LastChecked = now
		toSave = append(toSave, cur)
	}
	return toSave
}

// SummarizeRisk derives the per-identity risk block from open findings
func SummarizeRisk(id *identity.Identity, findings []*risks.Finding, now time.Time) identity.RiskSummary {
	sum := identity.RiskSummary{LastCalculated: now}
	for _, f := range findings {
		if f.Status != risks.StatusOpen || f.UserEmail != id.Email {
			continue
		}
		sum.OpenFindings++
		if f.Score > sum.MaxScore {
			sum.MaxScore = f.Score
		}
		switch f.Severity {
		case risks.SeverityCritical:
			sum.Critical++
		case risks.SeverityHigh:
			sum.High++
		case risks.SeverityMedium:
			sum.Medium++
		case risks.SeverityLow:
			sum.Low++
		}
	}
	return sum
}

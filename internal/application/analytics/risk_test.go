package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/bryanwahyu/automaton-iam/internal/domain/accounts"
	"github.com/bryanwahyu/automaton-iam/internal/domain/identity"
	"github.com/bryanwahyu/automaton-iam/internal/domain/risks"
)

func boolp(v bool) *bool { return &v }

func adminSlot(p accounts.Platform, strongAuth *bool) *identity.Slot {
	s := slot(p, daysAgo(1))
	s.IsAdmin = true
	s.StrongAuth = strongAuth
	return s
}

func findByType(fs []*risks.Finding, t risks.RiskType) *risks.Finding {
	for _, f := range fs {
		if f.Type == t {
			return f
		}
	}
	return nil
}

func TestScoreRisksAdminWithout2FA(t *testing.T) {
	id := ident("admin@example.com", map[accounts.Platform]*identity.Slot{
		accounts.PlatformGoogleWorkspace: adminSlot(accounts.PlatformGoogleWorkspace, nil),
		accounts.PlatformZoom:            adminSlot(accounts.PlatformZoom, boolp(false)),
	})

	fs := ScoreRisks([]*identity.Identity{id}, testNow, 0)

	var google, zoom *risks.Finding
	for _, f := range fs {
		if f.Type != risks.RiskAdminWithout2FA {
			continue
		}
		switch f.Platform {
		case accounts.PlatformGoogleWorkspace:
			google = f
		case accounts.PlatformZoom:
			zoom = f
		}
	}
	if google == nil || zoom == nil {
		t.Fatalf("expected admin_without_2fa on both platforms, got %d findings", len(fs))
	}
	// nil flag and explicit false both count as absent
	if google.Severity != risks.SeverityCritical {
		t.Errorf("google severity = %s, want critical", google.Severity)
	}
	if zoom.Severity != risks.SeverityHigh {
		t.Errorf("zoom severity = %s, want high", zoom.Severity)
	}
	if google.Score != 100 {
		t.Errorf("google score = %d, want 100", google.Score)
	}
}

func TestScoreRisksVerifiedAdminClean(t *testing.T) {
	id := ident("admin@example.com", map[accounts.Platform]*identity.Slot{
		accounts.PlatformGitHub: adminSlot(accounts.PlatformGitHub, boolp(true)),
	})

	fs := ScoreRisks([]*identity.Identity{id}, testNow, 0)
	if f := findByType(fs, risks.RiskAdminWithout2FA); f != nil {
		t.Fatalf("verified strong auth must not flag, got %+v", f)
	}
}

func TestScoreRisksSuspendedWithAccess(t *testing.T) {
	s := slot(accounts.PlatformSlack, daysAgo(1))
	s.Suspended = true
	id := ident("user@example.com", map[accounts.Platform]*identity.Slot{
		accounts.PlatformSlack: s,
	})

	fs := ScoreRisks([]*identity.Identity{id}, testNow, 0)
	f := findByType(fs, risks.RiskSuspendedWithAccess)
	if f == nil {
		t.Fatalf("suspended account still enumerated should flag")
	}
	if f.Severity != risks.SeverityHigh {
		t.Errorf("severity = %s, want high", f.Severity)
	}
}

func TestScoreRisksInactiveAdmin(t *testing.T) {
	id := ident("admin@example.com", map[accounts.Platform]*identity.Slot{
		accounts.PlatformAWS: adminSlot(accounts.PlatformAWS, boolp(true)),
	})
	id.Platforms[accounts.PlatformAWS].LastActivity = daysAgo(120)

	fs := ScoreRisks([]*identity.Identity{id}, testNow, 90*24*time.Hour)
	if findByType(fs, risks.RiskInactiveAdmin) == nil {
		t.Fatalf("dormant admin should flag inactive_admin")
	}
}

func TestScoreRisksExcessivePermissions(t *testing.T) {
	id := ident("admin@example.com", map[accounts.Platform]*identity.Slot{
		accounts.PlatformGoogleWorkspace: adminSlot(accounts.PlatformGoogleWorkspace, boolp(true)),
		accounts.PlatformGitHub:          adminSlot(accounts.PlatformGitHub, boolp(true)),
		accounts.PlatformAWS:             adminSlot(accounts.PlatformAWS, boolp(true)),
	})

	fs := ScoreRisks([]*identity.Identity{id}, testNow, 0)
	count := 0
	for _, f := range fs {
		if f.Type == risks.RiskExcessivePermissions {
			count++
		}
	}
	if count != 3 {
		t.Fatalf("admin on 3 platforms should flag each slot, got %d", count)
	}
}

func TestScoreRisksSharedAccount(t *testing.T) {
	id := ident("support@example.com", map[accounts.Platform]*identity.Slot{
		accounts.PlatformSlack: slot(accounts.PlatformSlack, daysAgo(1)),
		accounts.PlatformZoom:  slot(accounts.PlatformZoom, daysAgo(1)),
	})
	single := ident("support@other.com", map[accounts.Platform]*identity.Slot{
		accounts.PlatformSlack: slot(accounts.PlatformSlack, daysAgo(1)),
	})

	fs := ScoreRisks([]*identity.Identity{id, single}, testNow, 0)
	shared := 0
	for _, f := range fs {
		if f.Type == risks.RiskSharedAccount {
			shared++
			if f.UserEmail != "support@example.com" {
				t.Errorf("single-platform role mailbox should not flag, got %s", f.UserEmail)
			}
		}
	}
	if shared != 2 {
		t.Fatalf("role mailbox on 2 platforms should flag per slot, got %d", shared)
	}
}

func TestReconcileRefreshesOpenFinding(t *testing.T) {
	detected := testNow.Add(-48 * time.Hour)
	existing := []*risks.Finding{{
		ID: "f-1", TenantID: "acme", UserEmail: "a@x.com",
		Platform: accounts.PlatformSlack, Type: risks.RiskAdminWithout2FA,
		Severity: risks.SeverityHigh, Score: 50, Status: risks.StatusOpen,
		DetectedAt: detected, LastChecked: detected,
	}}
	candidates := []*risks.Finding{{
		TenantID: "acme", UserEmail: "a@x.com",
		Platform: accounts.PlatformSlack, Type: risks.RiskAdminWithout2FA,
		Severity: risks.SeverityHigh, Score: 50, Status: risks.StatusOpen,
		DetectedAt: testNow, LastChecked: testNow,
	}}

	out := ReconcileFindings(existing, candidates, testNow, func() string { return "should-not-mint" })

	if len(out) != 1 {
		t.Fatalf("got %d findings to save, want 1", len(out))
	}
	f := out[0]
	if f.ID != "f-1" {
		t.Errorf("open finding must keep its id, got %s", f.ID)
	}
	if !f.DetectedAt.Equal(detected) {
		t.Errorf("DetectedAt must survive a refresh")
	}
	if !f.LastChecked.Equal(testNow) {
		t.Errorf("LastChecked must advance to now")
	}
}

func TestReconcileResolvedGetsNewFinding(t *testing.T) {
	resolvedAt := testNow.Add(-24 * time.Hour)
	existing := []*risks.Finding{{
		ID: "f-1", TenantID: "acme", UserEmail: "a@x.com",
		Platform: accounts.PlatformSlack, Type: risks.RiskAdminWithout2FA,
		Status: risks.StatusResolved, ResolvedAt: &resolvedAt, ResolvedBy: "ops",
	}}
	candidates := []*risks.Finding{{
		TenantID: "acme", UserEmail: "a@x.com",
		Platform: accounts.PlatformSlack, Type: risks.RiskAdminWithout2FA,
		Status: risks.StatusOpen, DetectedAt: testNow, LastChecked: testNow,
	}}

	n := 0
	out := ReconcileFindings(existing, candidates, testNow, func() string { n++; return fmt.Sprintf("f-%d", n+1) })

	if len(out) != 1 {
		t.Fatalf("got %d findings, want 1 new", len(out))
	}
	if out[0].ID != "f-2" {
		t.Errorf("re-triggered condition must open a new finding, got id %s", out[0].ID)
	}
	if existing[0].Status != risks.StatusResolved || existing[0].ResolvedBy != "ops" {
		t.Errorf("the resolved record must stay untouched")
	}
}

func TestReconcileClosesStaleFindings(t *testing.T) {
	existing := []*risks.Finding{{
		ID: "f-1", TenantID: "acme", UserEmail: "a@x.com",
		Platform: accounts.PlatformSlack, Type: risks.RiskAdminWithout2FA,
		Status: risks.StatusOpen,
	}}

	out := ReconcileFindings(existing, nil, testNow, func() string { return "x" })

	if len(out) != 1 {
		t.Fatalf("got %d findings, want the stale closure", len(out))
	}
	if out[0].Status != risks.StatusStale {
		t.Errorf("status = %s, want stale", out[0].Status)
	}
}

func TestReconcileNeverDuplicates(t *testing.T) {
	candidate := &risks.Finding{
		TenantID: "acme", UserEmail: "a@x.com",
		Platform: accounts.PlatformSlack, Type: risks.RiskAdminWithout2FA,
		Status: risks.StatusOpen, DetectedAt: testNow, LastChecked: testNow,
	}
	n := 0
	mint := func() string { n++; return fmt.Sprintf("f-%d", n) }

	first := ReconcileFindings(nil, []*risks.Finding{candidate}, testNow, mint)
	second := ReconcileFindings(first, []*risks.Finding{candidate}, testNow, mint)

	if len(second) != 1 || second[0].ID != first[0].ID {
		t.Fatalf("re-running against the saved state must not mint a second finding")
	}
}

func TestScoreBounds(t *testing.T) {
	for _, sev := range []risks.Severity{risks.SeverityCritical, risks.SeverityHigh, risks.SeverityMedium, risks.SeverityLow} {
		for _, p := range accounts.AllPlatforms() {
			got := risks.ScoreFor(sev, p)
			if got < 0 || got > 100 {
				t.Errorf("ScoreFor(%s, %s) = %d, out of range", sev, p, got)
			}
		}
	}
}

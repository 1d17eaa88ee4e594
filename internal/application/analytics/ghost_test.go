package analytics

import (
	"testing"
	"time"

	"github.com/bryanwahyu/automaton-iam/internal/domain/accounts"
	"github.com/bryanwahyu/automaton-iam/internal/domain/identity"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) *time.Time {
	t := testNow.Add(-time.Duration(n) * 24 * time.Hour)
	return &t
}

func slot(p accounts.Platform, last *time.Time) *identity.Slot {
	return &identity.Slot{
		NativeID:     "id-" + string(p),
		Email:        "user@example.com",
		LastActivity: last,
		Lifecycle:    accounts.LifecycleActive,
		SyncedAt:     testNow,
	}
}

func ident(email string, slots map[accounts.Platform]*identity.Slot) *identity.Identity {
	return &identity.Identity{
		TenantID:  "acme",
		Email:     email,
		Platforms: slots,
	}
}

func TestDetectGhostsAllDormant(t *testing.T) {
	id := ident("user@example.com", map[accounts.Platform]*identity.Slot{
		accounts.PlatformSlack:  slot(accounts.PlatformSlack, nil),
		accounts.PlatformGitHub: slot(accounts.PlatformGitHub, daysAgo(91)),
	})

	DetectGhosts([]*identity.Identity{id}, testNow, 90*24*time.Hour)

	if !id.Ghost.IsGhost {
		t.Fatalf("expected ghost: never logged in on one platform, 91 days stale on the other")
	}
	if len(id.Ghost.NeverLoggedInPlatforms) != 1 || id.Ghost.NeverLoggedInPlatforms[0] != accounts.PlatformSlack {
		t.Errorf("never_logged_in = %v, want [slack]", id.Ghost.NeverLoggedInPlatforms)
	}
	if id.Ghost.InactiveDays != 91 {
		t.Errorf("inactive_days = %d, want 91", id.Ghost.InactiveDays)
	}
	if !id.Ghost.LastCalculated.Equal(testNow) {
		t.Errorf("last_calculated = %v, want %v", id.Ghost.LastCalculated, testNow)
	}
}

func TestDetectGhostsRecentActivityClears(t *testing.T) {
	id := ident("user@example.com", map[accounts.Platform]*identity.Slot{
		accounts.PlatformSlack:  slot(accounts.PlatformSlack, nil),
		accounts.PlatformGitHub: slot(accounts.PlatformGitHub, daysAgo(5)),
	})

	DetectGhosts([]*identity.Identity{id}, testNow, 90*24*time.Hour)

	if id.Ghost.IsGhost {
		t.Fatalf("recent activity on any platform must clear ghost status")
	}
}

func TestDetectGhostsThresholdBoundary(t *testing.T) {
	// exactly at the threshold is not stale; one day past is
	at := ident("a@x.com", map[accounts.Platform]*identity.Slot{
		accounts.PlatformZoom: slot(accounts.PlatformZoom, daysAgo(90)),
	})
	past := ident("b@x.com", map[accounts.Platform]*identity.Slot{
		accounts.PlatformZoom: slot(accounts.PlatformZoom, daysAgo(91)),
	})

	DetectGhosts([]*identity.Identity{at, past}, testNow, 90*24*time.Hour)

	if at.Ghost.IsGhost {
		t.Errorf("activity exactly at the threshold should not be ghost")
	}
	if !past.Ghost.IsGhost {
		t.Errorf("activity past the threshold should be ghost")
	}
}

func TestDetectGhostsSuspendedSlotsExcluded(t *testing.T) {
	s := slot(accounts.PlatformSlack, nil)
	s.Suspended = true
	id := ident("user@example.com", map[accounts.Platform]*identity.Slot{
		accounts.PlatformSlack: s,
	})

	DetectGhosts([]*identity.Identity{id}, testNow, 0)

	if id.Ghost.IsGhost {
		t.Fatalf("an identity whose only slot is suspended is not a ghost")
	}
}

func TestDetectGhostsSkipsInvalid(t *testing.T) {
	bad := &identity.Identity{TenantID: "acme", Email: "x@x.com"}
	DetectGhosts([]*identity.Identity{bad}, testNow, 0)
	if bad.Ghost.IsGhost || !bad.Ghost.LastCalculated.IsZero() {
		t.Fatalf("invalid identity must be left untouched")
	}
}

func TestDetectGhostsIdempotent(t *testing.T) {
	id := ident("user@example.com", map[accounts.Platform]*identity.Slot{
		accounts.PlatformAWS: slot(accounts.PlatformAWS, daysAgo(200)),
	})

	DetectGhosts([]*identity.Identity{id}, testNow, 90*24*time.Hour)
	first := id.Ghost
	DetectGhosts([]*identity.Identity{id}, testNow, 90*24*time.Hour)

	if id.Ghost.IsGhost != first.IsGhost || id.Ghost.InactiveDays != first.InactiveDays {
		t.Fatalf("re-running the pass with the same inputs changed the result")
	}
}

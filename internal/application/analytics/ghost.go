package analytics

import (
	"time"

	"github.com/bryanwahyu/automaton-iam/internal/domain/identity"
)

// DefaultInactivityThreshold: activity older than this makes a slot stale
const DefaultInactivityThreshold = 90 * 24 * time.Hour

// DetectGhosts recomputes the ghost block of every identity. Pure function
// of the input, the caller-supplied now and the threshold; safe to re-run on
// every sync cycle. Structurally invalid identities are skipped.
func DetectGhosts(ids []*identity.Identity, now time.Time, threshold time.Duration) []*identity.Identity {
	if threshold <= 0 {
		threshold = DefaultInactivityThreshold
	}
	for _, id := range ids {
		if !id.Valid() {
			continue
		}
		id.Ghost = ghostStatus(id, now, threshold)
	}
	return ids
}

func ghostStatus(id *identity.Identity, now time.Time, threshold time.Duration) identity.GhostStatus {
	g := identity.GhostStatus{LastCalculated: now}

	considered := 0
	allDormant := true
	minStaleDays := 0
	for _, p := range id.PlatformNames() {
		slot := id.Platforms[p]
		if slot.Suspended {
			continue
		}
		considered++
		switch {
		case slotNeverLoggedIn(slot):
			g.NeverLoggedInPlatforms = append(g.NeverLoggedInPlatforms, p)
		case slotStale(slot, now, threshold):
			days := int(now.Sub(*slot.LastActivity).Hours() / 24)
			// most-recent activity wins: report the minimum staleness
			if minStaleDays == 0 || days < minStaleDays {
				minStaleDays = days
			}
		default:
			allDormant = false
		}
	}

	g.IsGhost = considered > 0 && allDormant
	g.InactiveDays = minStaleDays
	return g
}

func slotNeverLoggedIn(s *identity.Slot) bool {
	return s.LastActivity == nil
}

func slotStale(s *identity.Slot, now time.Time, threshold time.Duration) bool {
	return s.LastActivity != nil && now.Sub(*s.LastActivity) > threshold
}

// slotGhost is the per-slot dormancy rule shared with the license waste
// calculator so the two passes cannot disagree on "unused".
func slotGhost(s *identity.Slot, now time.Time, threshold time.Duration) bool {
	if s.Suspended {
		return false
	}
	return slotNeverLoggedIn(s) || slotStale(s, now, threshold)
}

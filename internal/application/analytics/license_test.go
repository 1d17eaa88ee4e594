package analytics

import (
	"testing"
	"time"

	"github.com/bryanwahyu/automaton-iam/internal/domain/accounts"
	"github.com/bryanwahyu/automaton-iam/internal/domain/identity"
	"github.com/bryanwahyu/automaton-iam/internal/domain/licensing"
)

func floatp(v float64) *float64 { return &v }

func slackPricing() licensing.PricingTable {
	return licensing.PricingTable{
		Currency:              "USD",
		Tiers:                 map[string]float64{"business": 15, "pro": 8, "free": 0},
		Downgrades:            map[string]string{"business": "pro", "pro": "free"},
		FeatureUsageThreshold: 30,
	}
}

func licensedSlot(tier string, last *time.Time, usage *float64) *identity.Slot {
	s := slot(accounts.PlatformSlack, last)
	s.LicenseTier = tier
	s.FeatureUsage = usage
	return s
}

func TestCalculateWasteUnusedSeats(t *testing.T) {
	ids := []*identity.Identity{
		ident("ghost@x.com", map[accounts.Platform]*identity.Slot{
			accounts.PlatformSlack: licensedSlot("business", nil, nil),
		}),
		ident("active@x.com", map[accounts.Platform]*identity.Slot{
			accounts.PlatformSlack: licensedSlot("business", daysAgo(2), floatp(80)),
		}),
	}

	opt := CalculateWaste(ids, accounts.PlatformSlack, slackPricing(), testNow, 90*24*time.Hour)

	if opt.TotalSeats != 2 {
		t.Fatalf("total seats = %d, want 2", opt.TotalSeats)
	}
	if opt.UnusedSeats != 1 {
		t.Errorf("unused = %d, want 1", opt.UnusedSeats)
	}
	if opt.Savings.Monthly != 15 {
		t.Errorf("monthly savings = %v, want 15 (full seat cost)", opt.Savings.Monthly)
	}
	if opt.Savings.Annual != 180 {
		t.Errorf("annual savings = %v, want 180", opt.Savings.Annual)
	}
	if opt.WastePercentage != 50 {
		t.Errorf("waste pct = %v, want 50", opt.WastePercentage)
	}
	if opt.UtilizationRate != 50 {
		t.Errorf("utilization = %v, want 50", opt.UtilizationRate)
	}
}

func TestCalculateWasteDowngrade(t *testing.T) {
	ids := []*identity.Identity{
		ident("low@x.com", map[accounts.Platform]*identity.Slot{
			accounts.PlatformSlack: licensedSlot("business", daysAgo(2), floatp(10)),
		}),
	}

	opt := CalculateWaste(ids, accounts.PlatformSlack, slackPricing(), testNow, 0)

	if opt.UnderutilizedSeats != 1 {
		t.Fatalf("underutilized = %d, want 1", opt.UnderutilizedSeats)
	}
	item := opt.Items[0]
	if item.RecommendedTier != "pro" {
		t.Errorf("recommended tier = %q, want pro", item.RecommendedTier)
	}
	// 15 - 8 = the tier gap, not the full seat cost
	if item.MonthlySaving != 7 {
		t.Errorf("saving = %v, want 7", item.MonthlySaving)
	}
}

func TestCalculateWasteNoTelemetryNotWaste(t *testing.T) {
	ids := []*identity.Identity{
		ident("quiet@x.com", map[accounts.Platform]*identity.Slot{
			accounts.PlatformSlack: licensedSlot("business", daysAgo(2), nil),
		}),
	}

	opt := CalculateWaste(ids, accounts.PlatformSlack, slackPricing(), testNow, 0)
	if opt.UnderutilizedSeats != 0 {
		t.Fatalf("seat without usage telemetry must not count as underutilized")
	}
}

func TestCalculateWasteZeroLicenses(t *testing.T) {
	ids := []*identity.Identity{
		ident("free@x.com", map[accounts.Platform]*identity.Slot{
			accounts.PlatformSlack: slot(accounts.PlatformSlack, nil),
		}),
	}

	opt := CalculateWaste(ids, accounts.PlatformSlack, slackPricing(), testNow, 0)

	if opt.TotalSeats != 0 || opt.Savings.Monthly != 0 || opt.WastePercentage != 0 {
		t.Fatalf("no tracked licenses must yield zero-valued output, got %+v", opt)
	}
}

func TestCalculateWasteSkipsInactiveAndOtherPlatforms(t *testing.T) {
	gone := licensedSlot("business", nil, nil)
	gone.Lifecycle = accounts.LifecycleInactive
	ids := []*identity.Identity{
		ident("gone@x.com", map[accounts.Platform]*identity.Slot{
			accounts.PlatformSlack: gone,
		}),
		ident("elsewhere@x.com", map[accounts.Platform]*identity.Slot{
			accounts.PlatformZoom: slot(accounts.PlatformZoom, daysAgo(1)),
		}),
	}

	opt := CalculateWaste(ids, accounts.PlatformSlack, slackPricing(), testNow, 0)
	if opt.TotalSeats != 0 {
		t.Fatalf("inactive slots and other platforms must not count as seats, got %d", opt.TotalSeats)
	}
}

func TestCalculateWasteSuspendedSeatNotUnused(t *testing.T) {
	s := licensedSlot("business", nil, nil)
	s.Suspended = true
	ids := []*identity.Identity{
		ident("sus@x.com", map[accounts.Platform]*identity.Slot{
			accounts.PlatformSlack: s,
		}),
	}

	opt := CalculateWaste(ids, accounts.PlatformSlack, slackPricing(), testNow, 0)
	if opt.UnusedSeats != 0 {
		t.Fatalf("suspended seat follows the ghost rule and is not dormant waste")
	}
}

func TestSummarizeWaste(t *testing.T) {
	id := ident("ghost@x.com", map[accounts.Platform]*identity.Slot{
		accounts.PlatformSlack: licensedSlot("business", nil, nil),
	})
	opt := CalculateWaste([]*identity.Identity{id}, accounts.PlatformSlack, slackPricing(), testNow, 0)

	sum := SummarizeWaste(id, []*licensing.Optimization{opt}, testNow)

	if sum.MonthlyWaste != 15 {
		t.Errorf("monthly waste = %v, want 15", sum.MonthlyWaste)
	}
	if len(sum.WastedPlatforms) != 1 || sum.WastedPlatforms[0] != accounts.PlatformSlack {
		t.Errorf("wasted platforms = %v, want [slack]", sum.WastedPlatforms)
	}
	if sum.Currency != "USD" {
		t.Errorf("currency = %q, want USD", sum.Currency)
	}
}

package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/bryanwahyu/automaton-iam/internal/domain/accounts"
	"github.com/bryanwahyu/automaton-iam/internal/domain/identity"
	"github.com/bryanwahyu/automaton-iam/internal/domain/licensing"
)

// CalculateWaste partitions the platform's tracked seats into unused (the
// slot is a ghost) and underutilized (paid tier, feature usage below the
// table's threshold) and prices the gap. Zero tracked licenses yields a
// zero-valued optimization, not an error. Pure function of its inputs.
func CalculateWaste(ids []*identity.Identity, platform accounts.Platform, pricing licensing.PricingTable, now time.Time, threshold time.Duration) *licensing.Optimization {
	if threshold <= 0 {
		threshold = DefaultInactivityThreshold
	}
	opt := &licensing.Optimization{
		Platform:     platform,
		Savings:      licensing.Savings{Currency: pricing.Currency},
		CalculatedAt: now,
	}

	type seat struct {
		email string
		slot  *identity.Slot
	}
	var seats []seat
	for _, id := range ids {
		if !id.Valid() {
			continue
		}
		if opt.TenantID == "" {
			opt.TenantID = id.TenantID
		}
		slot, ok := id.Platforms[platform]
		if !ok || slot.Lifecycle != accounts.LifecycleActive || slot.LicenseTier == "" {
			continue
		}
		seats = append(seats, seat{email: id.Email, slot: slot})
	}
	sort.Slice(seats, func(i, j int) bool { return seats[i].email < seats[j].email })

	opt.TotalSeats = len(seats)
	if opt.TotalSeats == 0 {
		return opt
	}

	for _, st := range seats {
		cost := pricing.SeatCost(st.slot.LicenseTier)
		opt.TotalMonthlySpend += cost

		switch {
		case slotGhost(st.slot, now, threshold):
			opt.UnusedSeats++
			opt.Items = append(opt.Items, licensing.LineItem{
				Email:         st.email,
				Tier:          st.slot.LicenseTier,
				Reason:        licensing.WasteUnused,
				MonthlySaving: cost, // seat removal reclaims the full cost
			})
		case underutilized(st.slot, pricing):
			target := pricing.DowngradeTarget(st.slot.LicenseTier)
			saving := cost - pricing.SeatCost(target)
			if saving < 0 {
				saving = 0
			}
			opt.UnderutilizedSeats++
			opt.Items = append(opt.Items, licensing.LineItem{
				Email:           st.email,
				Tier:            st.slot.LicenseTier,
				RecommendedTier: target,
				Reason:          licensing.WasteUnderutilized,
				MonthlySaving:   saving,
			})
		}
	}

	wasted := opt.UnusedSeats + opt.UnderutilizedSeats
	opt.UtilizationRate = clampPercent(float64(opt.TotalSeats-wasted) / float64(opt.TotalSeats) * 100)
	opt.WastePercentage = clampPercent(float64(wasted) / float64(opt.TotalSeats) * 100)

	for _, it := range opt.Items {
		opt.Savings.Monthly += it.MonthlySaving
	}
	opt.Savings.Monthly = round2(opt.Savings.Monthly)
	opt.Savings.Annual = round2(opt.Savings.Monthly * 12)
	return opt
}

// underutilized: paid tier with reported feature usage under the threshold.
// Seats that never report usage are left alone; absence of telemetry is not
// evidence of waste.
func underutilized(s *identity.Slot, pricing licensing.PricingTable) bool {
	if s.FeatureUsage == nil || pricing.FeatureUsageThreshold <= 0 {
		return false
	}
	if pricing.SeatCost(s.LicenseTier) <= 0 {
		return false
	}
	return *s.FeatureUsage < pricing.FeatureUsageThreshold
}

// SummarizeWaste derives the per-identity waste block from an optimization
func SummarizeWaste(id *identity.Identity, opts []*licensing.Optimization, now time.Time) identity.WasteSummary {
	sum := identity.WasteSummary{LastCalculated: now}
	for _, opt := range opts {
		for _, it := range opt.Items {
			if it.Email != id.Email {
				continue
			}
			sum.MonthlyWaste += it.MonthlySaving
			sum.Currency = opt.Savings.Currency
			sum.WastedPlatforms = append(sum.WastedPlatforms, opt.Platform)
		}
	}
	sum.MonthlyWaste = round2(sum.MonthlyWaste)
	accounts.SortPlatforms(sum.WastedPlatforms)
	return sum
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return round2(v)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

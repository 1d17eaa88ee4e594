package analytics

import (
	"fmt"
	"time"

	"github.com/bryanwahyu/automaton-iam/internal/domain/licensing"
)

// DefaultCriticalMonthlySavings: monthly savings above this make a
// recommendation critical regardless of waste percentage.
const DefaultCriticalMonthlySavings = 1000.0

// GenerateRecommendations turns one optimization into prioritized,
// actionable records. It owns prose and priority bucketing only; every
// numeric field comes from the calculator unmodified. newID mints ids.
func GenerateRecommendations(opt *licensing.Optimization, pricing licensing.PricingTable, criticalMonthly float64, now time.Time, newID func() string) []*licensing.Recommendation {
	if opt == nil || opt.TotalSeats == 0 {
		return nil
	}
	if criticalMonthly <= 0 {
		criticalMonthly = DefaultCriticalMonthlySavings
	}

	var out []*licensing.Recommendation
	add := func(cat licensing.Category, title, desc string, actions []string, monthly float64, users []licensing.LineItem) {
		out = append(out, &licensing.Recommendation{
			ID:          newID(),
			TenantID:    opt.TenantID,
			Platform:    opt.Platform,
			Category:    cat,
			Priority:    bucketPriority(monthly, opt.WastePercentage, criticalMonthly),
			Title:       title,
			Description: desc,
			ActionItems: actions,
			Savings: licensing.Savings{
				Monthly:  round2(monthly),
				Annual:   round2(monthly * 12),
				Currency: opt.Savings.Currency,
			},
			AffectedUsers: users,
			CreatedAt:     now,
		})
	}

	var unused, downgradable, capped []licensing.LineItem
	var unusedMonthly, downgradeMonthly float64
	for _, it := range opt.Items {
		switch {
		case it.Reason == licensing.WasteUnused:
			unused = append(unused, it)
			unusedMonthly += it.MonthlySaving
		case it.RecommendedTier != "":
			downgradable = append(downgradable, it)
			downgradeMonthly += it.MonthlySaving
		default:
			// underutilized but already on the cheapest paid tier
			capped = append(capped, it)
		}
	}

	if len(unused) > 0 {
		add(licensing.CategoryGhostRemoval,
			fmt.Sprintf("Remove %d dormant %s seat(s)", len(unused), opt.Platform),
			fmt.Sprintf("%d of %d tracked seats on %s belong to accounts with no recent activity.", len(unused), opt.TotalSeats, opt.Platform),
			[]string{
				"Review the affected accounts with their managers",
				"Deactivate confirmed dormant accounts",
				"Release the freed seats at the next billing cycle",
			},
			unusedMonthly, unused)
	}

	if len(downgradable) > 0 {
		add(licensing.CategoryDowngrade,
			fmt.Sprintf("Downgrade %d underutilized %s seat(s)", len(downgradable), opt.Platform),
			fmt.Sprintf("%d seats on %s use paid features below the %.0f%% threshold and fit a cheaper tier.", len(downgradable), opt.Platform, pricing.FeatureUsageThreshold),
			[]string{
				"Confirm feature usage with the affected users",
				"Move each seat to the recommended tier",
			},
			downgradeMonthly, downgradable)
	}

	if len(capped) > 0 {
		add(licensing.CategoryUnusedFeature,
			fmt.Sprintf("Review feature adoption for %d %s seat(s)", len(capped), opt.Platform),
			fmt.Sprintf("%d seats on %s report low feature usage but have no cheaper tier available.", len(capped), opt.Platform),
			[]string{
				"Check whether these seats are still needed",
				"Consider enablement before renewal",
			},
			0, capped)
	}

	if pricing.BulkSeatThreshold > 0 && opt.TotalSeats >= pricing.BulkSeatThreshold && pricing.BulkDiscountRate > 0 {
		saving := opt.TotalMonthlySpend * pricing.BulkDiscountRate
		add(licensing.CategoryBulkDiscount,
			fmt.Sprintf("Negotiate a volume discount on %s", opt.Platform),
			fmt.Sprintf("The tenant holds %d %s seats, above the %d-seat volume threshold.", opt.TotalSeats, opt.Platform, pricing.BulkSeatThreshold),
			[]string{
				"Contact the vendor's account team before renewal",
				fmt.Sprintf("Target at least a %.0f%% volume discount", pricing.BulkDiscountRate*100),
			},
			saving, nil)
	}

	return out
}

// bucketPriority: critical above the absolute savings threshold, otherwise
// banded by waste percentage
func bucketPriority(monthly, wastePct, criticalMonthly float64) licensing.Priority {
	switch {
	case monthly > criticalMonthly:
		return licensing.PriorityCritical
	case wastePct >= 50:
		return licensing.PriorityHigh
	case wastePct >= 20:
		return licensing.PriorityMedium
	}
	return licensing.PriorityLow
}

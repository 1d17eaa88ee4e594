package licensing

import (
	"time"

	"github.com/bryanwahyu/automaton-iam/internal/domain/accounts"
)

// WasteReason enum
type WasteReason string

const (
	WasteUnused        WasteReason = "unused"
	WasteUnderutilized WasteReason = "underutilized"
)

// Savings value object
type Savings struct {
	Monthly  float64 `json:"monthly"`
	Annual   float64 `json:"annual"`
	Currency string  `json:"currency,omitempty"`
}

// LineItem carries one affected user's share so totals stay auditable
type LineItem struct {
	Email           string      `json:"email"`
	Tier            string      `json:"tier"`
	RecommendedTier string      `json:"recommended_tier,omitempty"` // empty = remove the seat
	Reason          WasteReason `json:"reason"`
	MonthlySaving   float64     `json:"monthly_saving"`
}

// Optimization is the license waste calculator output for one platform.
// Numeric fields pass through to the recommendation generator unmodified.
type Optimization struct {
	TenantID           string            `json:"tenant_id"`
	Platform           accounts.Platform `json:"platform"`
	TotalSeats         int               `json:"total_seats"`
	UnusedSeats        int               `json:"unused_seats"`
	UnderutilizedSeats int               `json:"underutilized_seats"`
	UtilizationRate    float64           `json:"utilization_rate"`  // percent
	WastePercentage    float64           `json:"waste_percentage"`  // percent
	TotalMonthlySpend  float64           `json:"total_monthly_spend"`
	Savings            Savings           `json:"potential_savings"`
	Items              []LineItem        `json:"items,omitempty"`
	CalculatedAt       time.Time         `json:"calculated_at"`
}

// Category enum
type Category string

const (
	CategoryGhostRemoval  Category = "ghost_removal"
	CategoryDowngrade     Category = "downgrade"
	CategoryUnusedFeature Category = "unused_feature"
	CategoryBulkDiscount  Category = "bulk_discount"
	// CategoryRenewalTiming exists for externally-sourced recommendations;
	// the generator has no renewal-date input and never emits it.
	CategoryRenewalTiming Category = "renewal_timing"
)

// Priority enum
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Aggregate Root: Recommendation. "Implemented" is an external signal; once
// set, the record is excluded from auto-regeneration but ActualSavings stays
// writable.
type Recommendation struct {
	ID            string            `json:"id"`
	TenantID      string            `json:"tenant_id"`
	Platform      accounts.Platform `json:"platform"`
	Category      Category          `json:"category"`
	Priority      Priority          `json:"priority"`
	Title         string            `json:"title"`
	Description   string            `json:"description,omitempty"`
	ActionItems   []string          `json:"action_items,omitempty"`
	Savings       Savings           `json:"potential_savings"`
	AffectedUsers []LineItem        `json:"affected_users,omitempty"`
	Implemented   bool              `json:"implemented"`
	ImplementedAt *time.Time        `json:"implemented_at,omitempty"`
	ImplementedBy string            `json:"implemented_by,omitempty"`
	ActualSavings *float64          `json:"actual_savings,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// PricingTable is the per-platform static configuration: tier costs, the
// downgrade path, and usage thresholds. Read-only input, hot-reloadable by
// the caller between runs.
type PricingTable struct {
	Currency              string             `yaml:"currency" json:"currency"`
	Tiers                 map[string]float64 `yaml:"tiers" json:"tiers"`           // tier -> monthly seat cost
	Downgrades            map[string]string  `yaml:"downgrades" json:"downgrades"` // tier -> cheaper target
	FeatureUsageThreshold float64            `yaml:"featureUsageThreshold" json:"feature_usage_threshold"` // percent
	BulkSeatThreshold     int                `yaml:"bulkSeatThreshold" json:"bulk_seat_threshold"`
	BulkDiscountRate      float64            `yaml:"bulkDiscountRate" json:"bulk_discount_rate"` // 0..1
}

// SeatCost returns the monthly cost of a tier, 0 when unknown
func (t PricingTable) SeatCost(tier string) float64 {
	return t.Tiers[tier]
}

// DowngradeTarget returns the recommended cheaper tier, "" when the tier has
// no downgrade path
func (t PricingTable) DowngradeTarget(tier string) string {
	return t.Downgrades[tier]
}

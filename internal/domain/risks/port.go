package risks

import (
	"context"
	"time"
)

// Repository port
type Repository interface {
	Save(ctx context.Context, f *Finding) error
	Get(ctx context.Context, tenant, id string) (*Finding, error)
	// List returns the tenant's findings, optionally filtered by status
	// (empty status = all).
	List(ctx context.Context, tenant string, status Status) ([]*Finding, error)
	// Resolve marks a finding resolved. External signal only; the scorer
	// never calls this.
	Resolve(ctx context.Context, tenant, id, resolvedBy string, at time.Time) error
}

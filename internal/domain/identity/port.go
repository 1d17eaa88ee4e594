package identity

import "context"

// Repository port. All writes are keyed upserts on (tenant, email) so the
// resolver is safe to re-run after a crash mid-pass.
type Repository interface {
	Upsert(ctx context.Context, i *Identity) error
	Get(ctx context.Context, tenant, email string) (*Identity, error)
	List(ctx context.Context, tenant string) ([]*Identity, error)

	// Derived blocks are written independently so the three passes can run
	// out of phase with each other.
	UpdateGhost(ctx context.Context, tenant, email string, g GhostStatus) error
	UpdateRisk(ctx context.Context, tenant, email string, r RiskSummary) error
	UpdateWaste(ctx context.Context, tenant, email string, w WasteSummary) error
}

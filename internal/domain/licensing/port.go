package licensing

import (
	"context"
	"time"

	"github.com/bryanwahyu/automaton-iam/internal/domain/accounts"
)

// RecommendationRepository port
type RecommendationRepository interface {
	Save(ctx context.Context, r *Recommendation) error
	Get(ctx context.Context, tenant, id string) (*Recommendation, error)
	List(ctx context.Context, tenant string) ([]*Recommendation, error)
	// DeleteUnimplemented clears the regenerable records for a platform;
	// implemented ones survive regeneration untouched.
	DeleteUnimplemented(ctx context.Context, tenant string, platform accounts.Platform) error
	// MarkImplemented and SetActualSavings are external signals, never set
	// by the generator itself.
	MarkImplemented(ctx context.Context, tenant, id, implementedBy string, at time.Time) error
	SetActualSavings(ctx context.Context, tenant, id string, amount float64) error
}

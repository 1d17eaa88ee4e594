package syncruns

import (
	"context"

	"github.com/bryanwahyu/automaton-iam/internal/domain/accounts"
)

// Repository port
type Repository interface {
	Save(ctx context.Context, r *Run) error
	Latest(ctx context.Context, tenant string, limit int) ([]*Run, error)
	LastSuccess(ctx context.Context, tenant string, platform accounts.Platform) (*Run, error)
}

// SnapshotStore port (penyimpanan snapshot raw per run)
type SnapshotStore interface {
	UploadJSON(ctx context.Context, key string, v any) (string, error)
}

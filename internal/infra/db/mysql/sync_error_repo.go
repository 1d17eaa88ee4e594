package mysql

import (
	"context"
	"database/sql"

	domain "github.com/bryanwahyu/automaton-iam/internal/domain/syncerrors"
)

type SyncErrorRepository struct {
	db *sql.DB
}

func NewSyncErrorRepository(db *sql.DB) *SyncErrorRepository {
	return &SyncErrorRepository{db: db}
}

// Save satu error entry (auto-increment id)
func (r *SyncErrorRepository) Save(ctx context.Context, e *domain.SyncError) error {
	const q = `
INSERT INTO sync_errors
(tenant_id, run_id, platform, kind, native_id, message, created_at)
VALUES (?,?,?,?,?,?,?);
`
	res, err := r.db.ExecContext(ctx, q,
		stringOrDash(e.TenantID), e.RunID, e.Platform, e.Kind, e.NativeID, e.Message, e.CreatedAt,
	)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		e.ID = id
	}
	return nil
}

// ListByRun errors of one run
func (r *SyncErrorRepository) ListByRun(ctx context.Context, tenant string, runID string, limit int) ([]*domain.SyncError, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT id, tenant_id, run_id, platform, kind, native_id, message, created_at
FROM sync_errors
WHERE tenant_id=? AND run_id=?
ORDER BY id DESC LIMIT ?;`
	rows, err := r.db.QueryContext(ctx, q, tenant, runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.SyncError
	for rows.Next() {
		var e domain.SyncError
		if err := rows.Scan(&e.ID, &e.TenantID, &e.RunID, &e.Platform, &e.Kind, &e.NativeID, &e.Message, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

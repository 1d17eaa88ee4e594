package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bryanwahyu/automaton-iam/internal/domain/accounts"
	domain "github.com/bryanwahyu/automaton-iam/internal/domain/syncruns"
)

type SyncRunRepository struct{ db *sql.DB }

func NewSyncRunRepository(db *sql.DB) *SyncRunRepository { return &SyncRunRepository{db: db} }

const runColumns = `id, tenant_id, platform, started_at, status,
       accounts_synced, records_skipped, merge_conflicts, marked_inactive,
       snapshot_url, error_tag, duration_ms`

// Save insert/update satu run
func (r *SyncRunRepository) Save(ctx context.Context, run *domain.Run) error {
	const q = `
INSERT INTO sync_runs
(id, tenant_id, platform, started_at, status,
 accounts_synced, records_skipped, merge_conflicts, marked_inactive,
 snapshot_url, error_tag, duration_ms)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (id) DO UPDATE SET
 status = EXCLUDED.status,
 accounts_synced = EXCLUDED.accounts_synced,
 records_skipped = EXCLUDED.records_skipped,
 merge_conflicts = EXCLUDED.merge_conflicts,
 marked_inactive = EXCLUDED.marked_inactive,
 snapshot_url = EXCLUDED.snapshot_url,
 error_tag = EXCLUDED.error_tag,
 duration_ms = EXCLUDED.duration_ms;`

	_, err := r.db.ExecContext(ctx, q,
		run.ID, stringOrDash(run.TenantID), run.Platform, run.StartedAt, run.Status,
		run.AccountsSynced, run.RecordsSkipped, run.MergeConflicts, run.MarkedInactive,
		run.SnapshotURL, run.ErrorTag, run.DurationMS,
	)
	return err
}

// Latest runs per tenant
func (r *SyncRunRepository) Latest(ctx context.Context, tenant string, limit int) ([]*domain.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT ` + runColumns + `
FROM sync_runs
WHERE tenant_id=$1 ORDER BY started_at DESC LIMIT $2;`
	rows, err := r.db.QueryContext(ctx, q, tenant, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Run
	for rows.Next() {
		var run domain.Run
		if err := rows.Scan(
			&run.ID, &run.TenantID, &run.Platform, &run.StartedAt, &run.Status,
			&run.AccountsSynced, &run.RecordsSkipped, &run.MergeConflicts, &run.MarkedInactive,
			&run.SnapshotURL, &run.ErrorTag, &run.DurationMS,
		); err != nil {
			return nil, err
		}
		out = append(out, &run)
	}
	return out, rows.Err()
}

// LastSuccess most recent successful run for a platform, nil when none
func (r *SyncRunRepository) LastSuccess(ctx context.Context, tenant string, platform accounts.Platform) (*domain.Run, error) {
	q := `SELECT ` + runColumns + `
FROM sync_runs
WHERE tenant_id=$1 AND platform=$2 AND status IN ('success','partial')
ORDER BY started_at DESC LIMIT 1;`
	var run domain.Run
	err := r.db.QueryRowContext(ctx, q, tenant, platform).Scan(
		&run.ID, &run.TenantID, &run.Platform, &run.StartedAt, &run.Status,
		&run.AccountsSynced, &run.RecordsSkipped, &run.MergeConflicts, &run.MarkedInactive,
		&run.SnapshotURL, &run.ErrorTag, &run.DurationMS,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

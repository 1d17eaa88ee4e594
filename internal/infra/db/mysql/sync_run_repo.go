package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bryanwahyu/automaton-iam/internal/domain/accounts"
	domain "github.com/bryanwahyu/automaton-iam/internal/domain/syncruns"
)

type SyncRunRepository struct {
	db *sql.DB
}

func NewSyncRunRepository(db *sql.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

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
VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 status=VALUES(status),
 accounts_synced=VALUES(accounts_synced), records_skipped=VALUES(records_skipped),
 merge_conflicts=VALUES(merge_conflicts), marked_inactive=VALUES(marked_inactive),
 snapshot_url=VALUES(snapshot_url), error_tag=VALUES(error_tag),
 duration_ms=VALUES(duration_ms);
`
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
WHERE tenant_id=? ORDER BY started_at DESC LIMIT ?;`
	rows, err := r.db.QueryContext(ctx, q, tenant, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// LastSuccess returns the most recent successful run for a platform, nil
// when there is none yet
func (r *SyncRunRepository) LastSuccess(ctx context.Context, tenant string, platform accounts.Platform) (*domain.Run, error) {
	q := `SELECT ` + runColumns + `
FROM sync_runs
WHERE tenant_id=? AND platform=? AND status IN ('success','partial')
ORDER BY started_at DESC LIMIT 1;`
	run, err := scanRun(r.db.QueryRowContext(ctx, q, tenant, platform))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return run, err
}

func scanRun(row rowScanner) (*domain.Run, error) {
	var run domain.Run
	if err := row.Scan(
		&run.ID, &run.TenantID, &run.Platform, &run.StartedAt, &run.Status,
		&run.AccountsSynced, &run.RecordsSkipped, &run.MergeConflicts, &run.MarkedInactive,
		&run.SnapshotURL, &run.ErrorTag, &run.DurationMS,
	); err != nil {
		return nil, err
	}
	return &run, nil
}

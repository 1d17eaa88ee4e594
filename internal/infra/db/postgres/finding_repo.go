package postgres

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/bryanwahyu/automaton-iam/internal/domain/risks"
)

type FindingRepository struct{ db *sql.DB }

func NewFindingRepository(db *sql.DB) *FindingRepository { return &FindingRepository{db: db} }

const findingColumns = `id, tenant_id, user_email, platform, risk_type, severity, score,
       status, detail, detected_at, last_checked, resolved_at, resolved_by`

// Save insert/update satu finding
func (r *FindingRepository) Save(ctx context.Context, f *domain.Finding) error {
	const q = `
INSERT INTO security_risk_findings
(id, tenant_id, user_email, platform, risk_type, severity, score,
 status, detail, detected_at, last_checked, resolved_at, resolved_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (id) DO UPDATE SET
 severity = EXCLUDED.severity,
 score = EXCLUDED.score,
 status = EXCLUDED.status,
 detail = EXCLUDED.detail,
 last_checked = EXCLUDED.last_checked,
 resolved_at = EXCLUDED.resolved_at,
 resolved_by = EXCLUDED.resolved_by;`

	_, err := r.db.ExecContext(ctx, q,
		f.ID, stringOrDash(f.TenantID), f.UserEmail, f.Platform, f.Type, f.Severity, f.Score,
		f.Status, f.Detail, f.DetectedAt, f.LastChecked, nullTime(f.ResolvedAt), f.ResolvedBy,
	)
	return err
}

// Get by tenant + id
func (r *FindingRepository) Get(ctx context.Context, tenant, id string) (*domain.Finding, error) {
	q := `SELECT ` + findingColumns + `
FROM security_risk_findings
WHERE tenant_id=$1 AND id=$2 LIMIT 1;`
	return scanFinding(r.db.QueryRowContext(ctx, q, tenant, id))
}

// List findings, optionally filtered by status
func (r *FindingRepository) List(ctx context.Context, tenant string, status domain.Status) ([]*domain.Finding, error) {
	q := `SELECT ` + findingColumns + `
FROM security_risk_findings
WHERE tenant_id=$1`
	args := []interface{}{tenant}
	if status != "" {
		q += " AND status=$2"
		args = append(args, status)
	}
	q += "\nORDER BY score DESC, detected_at DESC;"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Finding
	for rows.Next() {
		f, err := scanFinding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Resolve external signal
func (r *FindingRepository) Resolve(ctx context.Context, tenant, id, resolvedBy string, at time.Time) error {
	const q = `
UPDATE security_risk_findings
SET status=$1, resolved_at=$2, resolved_by=$3
WHERE tenant_id=$4 AND id=$5 AND status=$6;`
	res, err := r.db.ExecContext(ctx, q,
		domain.StatusResolved, at, resolvedBy, tenant, id, domain.StatusOpen)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFinding(row rowScanner) (*domain.Finding, error) {
	var f domain.Finding
	var resolvedAt sql.NullTime
	if err := row.Scan(
		&f.ID, &f.TenantID, &f.UserEmail, &f.Platform, &f.Type, &f.Severity, &f.Score,
		&f.Status, &f.Detail, &f.DetectedAt, &f.LastChecked, &resolvedAt, &f.ResolvedBy,
	); err != nil {
		return nil, err
	}
	f.ResolvedAt = timePtr(resolvedAt)
	return &f, nil
}

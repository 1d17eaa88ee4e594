package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bryanwahyu/automaton-iam/internal/domain/accounts"
	domain "github.com/bryanwahyu/automaton-iam/internal/domain/licensing"
)

type RecommendationRepository struct {
	db *sql.DB
}

func NewRecommendationRepository(db *sql.DB) *RecommendationRepository {
	return &RecommendationRepository{db: db}
}

const recommendationColumns = `id, tenant_id, platform, category, priority, title, description,
       action_items_json, monthly_savings, annual_savings, currency, affected_users_json,
       implemented, implemented_at, implemented_by, actual_savings, created_at`

// Save insert/update satu recommendation
func (r *RecommendationRepository) Save(ctx context.Context, rec *domain.Recommendation) error {
	const q = `
INSERT INTO optimization_recommendations
(id, tenant_id, platform, category, priority, title, description,
 action_items_json, monthly_savings, annual_savings, currency, affected_users_json,
 implemented, implemented_at, implemented_by, actual_savings, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 priority=VALUES(priority), title=VALUES(title), description=VALUES(description),
 action_items_json=VALUES(action_items_json),
 monthly_savings=VALUES(monthly_savings), annual_savings=VALUES(annual_savings),
 currency=VALUES(currency), affected_users_json=VALUES(affected_users_json);
`
	actions, err := json.Marshal(rec.ActionItems)
	if err != nil {
		return fmt.Errorf("marshal action items: %w", err)
	}
	affected, err := json.Marshal(rec.AffectedUsers)
	if err != nil {
		return fmt.Errorf("marshal affected users: %w", err)
	}

	_, err = r.db.ExecContext(ctx, q,
		rec.ID, stringOrDash(rec.TenantID), rec.Platform, rec.Category, rec.Priority,
		rec.Title, rec.Description,
		actions, rec.Savings.Monthly, rec.Savings.Annual, rec.Savings.Currency, affected,
		rec.Implemented, nullTime(rec.ImplementedAt), rec.ImplementedBy,
		nullFloat(rec.ActualSavings), rec.CreatedAt,
	)
	return err
}

// Get by tenant + id
func (r *RecommendationRepository) Get(ctx context.Context, tenant, id string) (*domain.Recommendation, error) {
	q := `SELECT ` + recommendationColumns + `
FROM optimization_recommendations
WHERE tenant_id=? AND id=? LIMIT 1;`
	return scanRecommendation(r.db.QueryRowContext(ctx, q, tenant, id))
}

// List all recommendations of a tenant, highest savings first
func (r *RecommendationRepository) List(ctx context.Context, tenant string) ([]*domain.Recommendation, error) {
	q := `SELECT ` + recommendationColumns + `
FROM optimization_recommendations
WHERE tenant_id=?
ORDER BY monthly_savings DESC, created_at DESC;`
	rows, err := r.db.QueryContext(ctx, q, tenant)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Recommendation
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteUnimplemented clears regenerable records; implemented ones survive
func (r *RecommendationRepository) DeleteUnimplemented(ctx context.Context, tenant string, platform accounts.Platform) error {
	const q = `
DELETE FROM optimization_recommendations
WHERE tenant_id=? AND platform=? AND implemented=0;`
	_, err := r.db.ExecContext(ctx, q, tenant, platform)
	return err
}

// MarkImplemented external signal
func (r *RecommendationRepository) MarkImplemented(ctx context.Context, tenant, id, implementedBy string, at time.Time) error {
	const q = `
UPDATE optimization_recommendations
SET implemented=1, implemented_at=?, implemented_by=?
WHERE tenant_id=? AND id=?;`
	res, err := r.db.ExecContext(ctx, q, at, implementedBy, tenant, id)
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

// SetActualSavings stays writable after implementation
func (r *RecommendationRepository) SetActualSavings(ctx context.Context, tenant, id string, amount float64) error {
	const q = `
UPDATE optimization_recommendations
SET actual_savings=?
WHERE tenant_id=? AND id=?;`
	res, err := r.db.ExecContext(ctx, q, amount, tenant, id)
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

func scanRecommendation(row rowScanner) (*domain.Recommendation, error) {
	var rec domain.Recommendation
	var actions, affected []byte
	var implementedAt sql.NullTime
	var actual sql.NullFloat64
	if err := row.Scan(
		&rec.ID, &rec.TenantID, &rec.Platform, &rec.Category, &rec.Priority,
		&rec.Title, &rec.Description,
		&actions, &rec.Savings.Monthly, &rec.Savings.Annual, &rec.Savings.Currency, &affected,
		&rec.Implemented, &implementedAt, &rec.ImplementedBy, &actual, &rec.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(actions) > 0 {
		if err := json.Unmarshal(actions, &rec.ActionItems); err != nil {
			return nil, fmt.Errorf("unmarshal action items: %w", err)
		}
	}
	if len(affected) > 0 {
		if err := json.Unmarshal(affected, &rec.AffectedUsers); err != nil {
			return nil, fmt.Errorf("unmarshal affected users: %w", err)
		}
	}
	rec.ImplementedAt = timePtr(implementedAt)
	rec.ActualSavings = floatPtr(actual)
	return &rec, nil
}

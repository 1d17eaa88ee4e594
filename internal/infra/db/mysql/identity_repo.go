package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bryanwahyu/automaton-iam/internal/domain/accounts"
	domain "github.com/bryanwahyu/automaton-iam/internal/domain/identity"
)

// IdentityRepository stores the cross-platform identity: slot map and
// derived blocks serialized as JSON, plus flat columns (is_ghost,
// max_risk_score, monthly_waste) for range/equality queries.
type IdentityRepository struct {
	db *sql.DB
}

func NewIdentityRepository(db *sql.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

const identityColumns = `tenant_id, email, platforms_json,
       is_ghost, ghost_json, max_risk_score, risk_json, monthly_waste, waste_json,
       first_resolved_at, last_resolved_at`

// Upsert writes the whole identity, keyed (tenant, email)
func (r *IdentityRepository) Upsert(ctx context.Context, i *domain.Identity) error {
	const q = `
INSERT INTO cross_platform_identities
(tenant_id, email, platforms_json,
 is_ghost, ghost_json, max_risk_score, risk_json, monthly_waste, waste_json,
 first_resolved_at, last_resolved_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 platforms_json=VALUES(platforms_json),
 is_ghost=VALUES(is_ghost), ghost_json=VALUES(ghost_json),
 max_risk_score=VALUES(max_risk_score), risk_json=VALUES(risk_json),
 monthly_waste=VALUES(monthly_waste), waste_json=VALUES(waste_json),
 last_resolved_at=VALUES(last_resolved_at);
`
	platforms, err := json.Marshal(i.Platforms)
	if err != nil {
		return fmt.Errorf("marshal platforms: %w", err)
	}
	ghost, err := json.Marshal(i.Ghost)
	if err != nil {
		return fmt.Errorf("marshal ghost: %w", err)
	}
	risk, err := json.Marshal(i.Risk)
	if err != nil {
		return fmt.Errorf("marshal risk: %w", err)
	}
	waste, err := json.Marshal(i.Waste)
	if err != nil {
		return fmt.Errorf("marshal waste: %w", err)
	}

	_, err = r.db.ExecContext(ctx, q,
		stringOrDash(i.TenantID), i.Email, platforms,
		i.Ghost.IsGhost, ghost, i.Risk.MaxScore, risk, i.Waste.MonthlyWaste, waste,
		i.FirstResolvedAt, i.LastResolvedAt,
	)
	return err
}

// Get by tenant + email. Returns (nil, nil) when absent; the resolver treats
// a missing identity as "create".
func (r *IdentityRepository) Get(ctx context.Context, tenant, email string) (*domain.Identity, error) {
	q := `SELECT ` + identityColumns + `
FROM cross_platform_identities
WHERE tenant_id=? AND email=? LIMIT 1;`
	i, err := scanIdentity(r.db.QueryRowContext(ctx, q, tenant, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return i, err
}

// List all identities of a tenant
func (r *IdentityRepository) List(ctx context.Context, tenant string) ([]*domain.Identity, error) {
	q := `SELECT ` + identityColumns + `
FROM cross_platform_identities
WHERE tenant_id=?
ORDER BY email;`
	rows, err := r.db.QueryContext(ctx, q, tenant)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Identity
	for rows.Next() {
		i, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// UpdateGhost writes the ghost block only
func (r *IdentityRepository) UpdateGhost(ctx context.Context, tenant, email string, g domain.GhostStatus) error {
	blob, err := json.Marshal(g)
	if err != nil {
		return err
	}
	const q = `
UPDATE cross_platform_identities
SET is_ghost=?, ghost_json=?
WHERE tenant_id=? AND email=?;`
	_, err = r.db.ExecContext(ctx, q, g.IsGhost, blob, tenant, email)
	return err
}

// UpdateRisk writes the risk block only
func (r *IdentityRepository) UpdateRisk(ctx context.Context, tenant, email string, s domain.RiskSummary) error {
	blob, err := json.Marshal(s)
	if err != nil {
		return err
	}
	const q = `
UPDATE cross_platform_identities
SET max_risk_score=?, risk_json=?
WHERE tenant_id=? AND email=?;`
	_, err = r.db.ExecContext(ctx, q, s.MaxScore, blob, tenant, email)
	return err
}

// UpdateWaste writes the waste block only
func (r *IdentityRepository) UpdateWaste(ctx context.Context, tenant, email string, w domain.WasteSummary) error {
	blob, err := json.Marshal(w)
	if err != nil {
		return err
	}
	const q = `
UPDATE cross_platform_identities
SET monthly_waste=?, waste_json=?
WHERE tenant_id=? AND email=?;`
	_, err = r.db.ExecContext(ctx, q, w.MonthlyWaste, blob, tenant, email)
	return err
}

func scanIdentity(row rowScanner) (*domain.Identity, error) {
	var i domain.Identity
	var platforms, ghost, risk, waste []byte
	var isGhost bool
	var maxScore int
	var monthlyWaste float64
	if err := row.Scan(
		&i.TenantID, &i.Email, &platforms,
		&isGhost, &ghost, &maxScore, &risk, &monthlyWaste, &waste,
		&i.FirstResolvedAt, &i.LastResolvedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(platforms, &i.Platforms); err != nil {
		return nil, fmt.Errorf("unmarshal platforms: %w", err)
	}
	if len(ghost) > 0 {
		if err := json.Unmarshal(ghost, &i.Ghost); err != nil {
			return nil, fmt.Errorf("unmarshal ghost: %w", err)
		}
	}
	if len(risk) > 0 {
		if err := json.Unmarshal(risk, &i.Risk); err != nil {
			return nil, fmt.Errorf("unmarshal risk: %w", err)
		}
	}
	if len(waste) > 0 {
		if err := json.Unmarshal(waste, &i.Waste); err != nil {
			return nil, fmt.Errorf("unmarshal waste: %w", err)
		}
	}
	if i.Platforms == nil {
		i.Platforms = make(map[accounts.Platform]*domain.Slot)
	}
	return &i, nil
}

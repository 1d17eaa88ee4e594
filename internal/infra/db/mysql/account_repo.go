package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	domain "github.com/bryanwahyu/automaton-iam/internal/domain/accounts"
)

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `tenant_id, platform, native_id, email, display_name,
       is_admin, suspended, strong_auth, last_activity,
       license_tier, feature_usage, lifecycle, synced_at`

// Upsert insert/update satu account, keyed (tenant, platform, native id)
func (r *AccountRepository) Upsert(ctx context.Context, a *domain.Account) error {
	const q = `
INSERT INTO platform_accounts
(tenant_id, platform, native_id, email, display_name,
 is_admin, suspended, strong_auth, last_activity,
 license_tier, feature_usage, lifecycle, synced_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 email=VALUES(email), display_name=VALUES(display_name),
 is_admin=VALUES(is_admin), suspended=VALUES(suspended),
 strong_auth=VALUES(strong_auth), last_activity=VALUES(last_activity),
 license_tier=VALUES(license_tier), feature_usage=VALUES(feature_usage),
 lifecycle=VALUES(lifecycle), synced_at=VALUES(synced_at);
`
	tenant := stringOrDash(a.TenantID)
	synced := a.SyncedAt
	if synced.IsZero() {
		synced = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		tenant, a.Platform, a.NativeID, a.Email, a.DisplayName,
		a.IsAdmin, a.Suspended, nullBool(a.StrongAuth), nullTime(a.LastActivity),
		a.LicenseTier, nullFloat(a.FeatureUsage), a.Lifecycle, synced,
	)
	return err
}

// Get by tenant + platform + native id
func (r *AccountRepository) Get(ctx context.Context, tenant string, platform domain.Platform, nativeID string) (*domain.Account, error) {
	q := `SELECT ` + accountColumns + `
FROM platform_accounts
WHERE tenant_id=? AND platform=? AND native_id=? LIMIT 1;`
	return scanAccount(r.db.QueryRowContext(ctx, q, tenant, platform, nativeID))
}

// ListActive accounts of one platform
func (r *AccountRepository) ListActive(ctx context.Context, tenant string, platform domain.Platform) ([]*domain.Account, error) {
	q := `SELECT ` + accountColumns + `
FROM platform_accounts
WHERE tenant_id=? AND platform=? AND lifecycle='active'
ORDER BY native_id;`
	rows, err := r.db.QueryContext(ctx, q, tenant, platform)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAccounts(rows)
}

// ListAll accounts of the tenant, active and inactive
func (r *AccountRepository) ListAll(ctx context.Context, tenant string) ([]*domain.Account, error) {
	q := `SELECT ` + accountColumns + `
FROM platform_accounts
WHERE tenant_id=?
ORDER BY platform, native_id;`
	rows, err := r.db.QueryContext(ctx, q, tenant)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAccounts(rows)
}

// MarkInactive soft-removes active rows absent from the latest fetch
func (r *AccountRepository) MarkInactive(ctx context.Context, tenant string, platform domain.Platform, keep []string, at time.Time) (int64, error) {
	q := `
UPDATE platform_accounts
SET lifecycle='inactive', synced_at=?
WHERE tenant_id=? AND platform=? AND lifecycle='active'`
	args := []interface{}{at, tenant, platform}

	if len(keep) > 0 {
		q += fmt.Sprintf(" AND native_id NOT IN (%s)", placeholders(len(keep)))
		for _, id := range keep {
			args = append(args, id)
		}
	}

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var a domain.Account
	var strong sql.NullBool
	var lastActivity sql.NullTime
	var usage sql.NullFloat64
	if err := row.Scan(
		&a.TenantID, &a.Platform, &a.NativeID, &a.Email, &a.DisplayName,
		&a.IsAdmin, &a.Suspended, &strong, &lastActivity,
		&a.LicenseTier, &usage, &a.Lifecycle, &a.SyncedAt,
	); err != nil {
		return nil, err
	}
	a.StrongAuth = boolPtr(strong)
	a.LastActivity = timePtr(lastActivity)
	a.FeatureUsage = floatPtr(usage)
	return &a, nil
}

func collectAccounts(rows *sql.Rows) ([]*domain.Account, error) {
	var out []*domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

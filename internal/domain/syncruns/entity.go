package syncruns

import (
	"time"

	"github.com/bryanwahyu/automaton-iam/internal/domain/accounts"
)

// RunID tipe untuk Run
type RunID string

// Status enum
type Status string

const (
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	// StatusPartial: the fetch succeeded but some records were skipped or
	// conflicted.
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// Aggregate Root: Run, one per (tenant, platform) sync attempt. This is the
// audit trail behind the soft-delete lifecycle.
type Run struct {
	ID             RunID             `json:"id"`
	TenantID       string            `json:"tenant_id"`
	Platform       accounts.Platform `json:"platform"`
	StartedAt      time.Time         `json:"started_at"`
	Status         Status            `json:"status"`
	AccountsSynced int               `json:"accounts_synced"`
	RecordsSkipped int               `json:"records_skipped"`
	MergeConflicts int               `json:"merge_conflicts"`
	MarkedInactive int               `json:"marked_inactive"`
	SnapshotURL    string            `json:"snapshot_url,omitempty"`
	ErrorTag       string            `json:"error_tag,omitempty"` // credential_not_configured | credential_expired | platform_unreachable
	DurationMS     int64             `json:"duration_ms"`
}

package syncerrors

import "time"

// Kind of persisted sync problem
const (
	KindMalformedRecord = "malformed_record"
	KindMergeConflict   = "merge_conflict"
)

// SyncError represents one skipped or conflicting record inside a sync run
type SyncError struct {
	ID        int64     `json:"id"`
	TenantID  string    `json:"tenant_id"`
	RunID     string    `json:"run_id"`
	Platform  string    `json:"platform"`
	Kind      string    `json:"kind"`
	NativeID  string    `json:"native_id,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

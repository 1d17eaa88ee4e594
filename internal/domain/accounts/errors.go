package accounts

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the sync layer. Callers dispatch with errors.Is;
// both credential variants match ErrCredentialUnavailable.
var (
	ErrCredentialUnavailable = errors.New("credential unavailable")

	// ErrCredentialNotConfigured: the tenant never connected this platform.
	// User-actionable, never retried automatically.
	ErrCredentialNotConfigured = fmt.Errorf("connector not configured: %w", ErrCredentialUnavailable)

	// ErrCredentialExpired: a connection exists but the token is no longer valid.
	ErrCredentialExpired = fmt.Errorf("credential expired or invalid: %w", ErrCredentialUnavailable)

	// ErrPlatformUnreachable: transient network/rate-limit failure. The caller
	// owns retry/backoff policy.
	ErrPlatformUnreachable = errors.New("platform unreachable")

	// ErrMalformedRecord: a single raw record failed normalization. Skipped
	// and counted, never aborts the sync.
	ErrMalformedRecord = errors.New("malformed account record")

	// ErrMergeConflict: same native id seen with a different email across runs.
	ErrMergeConflict = errors.New("account merge conflict")
)

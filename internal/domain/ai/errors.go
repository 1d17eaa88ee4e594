package ai

import "errors"

// ErrQuotaExceeded: the provider rate-limited or capped the account. The
// advisor is best effort, so callers log this and keep the template prose.
var ErrQuotaExceeded = errors.New("ai quota exceeded")

package accounts

import (
	"context"
	"time"
)

// Repository port (interface untuk persistence)
type Repository interface {
	Upsert(ctx context.Context, a *Account) error
	Get(ctx context.Context, tenant string, platform Platform, nativeID string) (*Account, error)
	ListActive(ctx context.Context, tenant string, platform Platform) ([]*Account, error)
	// ListAll returns every account for the tenant, active and inactive;
	// the resolver carries the inactive flag into identity slots.
	ListAll(ctx context.Context, tenant string) ([]*Account, error)
	// MarkInactive soft-removes every active account of the platform whose
	// native id is not in keep. Returns the number of rows flagged.
	MarkInactive(ctx context.Context, tenant string, platform Platform, keep []string, at time.Time) (int64, error)
}

// CredentialConnector port. The OAuth lifecycle and token vault live outside
// this engine; we only ask it for a working bearer credential.
type CredentialConnector interface {
	GetCredential(ctx context.Context, tenant string, platform Platform) (string, error)
}

// Adapter port, one per platform. FetchAccounts wraps the external raw API
// client; Normalize maps one vendor record into the common Account shape.
type Adapter interface {
	Platform() Platform
	FetchAccounts(ctx context.Context, token string) ([]RawRecord, error)
	Normalize(rec RawRecord) (*Account, error)
}

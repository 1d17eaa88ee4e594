package ai

import "context"

// Client turns a findings/waste digest into tenant-facing prose. Numeric
// fields never pass through it.
type Client interface {
	Advise(ctx context.Context, digest string) (string, error)
}

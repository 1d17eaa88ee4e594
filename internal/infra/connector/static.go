package connector

import (
	"context"
	"fmt"

	"github.com/bryanwahyu/automaton-iam/internal/domain/accounts"
)

// Static serves credentials straight from configuration. The real OAuth
// lifecycle and token vault live outside the engine; this connector covers
// deployments where the collector layer already holds long-lived tokens.
type Static struct {
	// tokens[tenant][platform] = bearer credential; the literal value
	// "expired" marks a connection that needs re-authorization.
	tokens map[string]map[accounts.Platform]string
}

func NewStatic(tokens map[string]map[accounts.Platform]string) *Static {
	return &Static{tokens: tokens}
}

func (s *Static) GetCredential(ctx context.Context, tenant string, platform accounts.Platform) (string, error) {
	byPlatform, ok := s.tokens[tenant]
	if !ok {
		return "", fmt.Errorf("%w: tenant %s", accounts.ErrCredentialNotConfigured, tenant)
	}
	token, ok := byPlatform[platform]
	if !ok || token == "" {
		return "", fmt.Errorf("%w: %s/%s", accounts.ErrCredentialNotConfigured, tenant, platform)
	}
	if token == "expired" {
		return "", fmt.Errorf("%w: %s/%s", accounts.ErrCredentialExpired, tenant, platform)
	}
	return token, nil
}

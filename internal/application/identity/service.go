package identity

import (
	"context"
	"fmt"

	"github.com/bryanwahyu/automaton-iam/internal/application"
	"github.com/bryanwahyu/automaton-iam/internal/domain/accounts"
	domain "github.com/bryanwahyu/automaton-iam/internal/domain/identity"
)

// Service merges normalized accounts into one cross-platform identity per
// (tenant, normalized email). Not safe for concurrent use on the same
// tenant; the caller serializes recomputation per tenant.
type Service struct {
	Accounts   accounts.Repository
	Identities domain.Repository
	Clock      application.Clock
}

// Resolve reads every account for the tenant and builds or updates one
// identity per normalized email. Only platform slots present in this run are
// written; a platform missing from the input leaves its stale slot as-is.
// Removal is expressed via the account's own inactive flag, carried through
// into the slot. Idempotent modulo the resolution timestamps.
func (s *Service) Resolve(ctx context.Context, tenant string) (map[string]*domain.Identity, error) {
	accts, err := s.Accounts.ListAll(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	// group by join key; accounts without an email are excluded outright,
	// never assigned a synthetic key
	grouped := make(map[string]map[accounts.Platform]*accounts.Account)
	for _, a := range accts {
		email := accounts.NormalizeEmail(a.Email)
		if email == "" {
			continue
		}
		slots, ok := grouped[email]
		if !ok {
			slots = make(map[accounts.Platform]*accounts.Account)
			grouped[email] = slots
		}
		// two accounts of the same platform under one email: latest synced
		// wins, not insertion order
		if cur, ok := slots[a.Platform]; ok && !a.SyncedAt.After(cur.SyncedAt) {
			continue
		}
		slots[a.Platform] = a
	}

	now := s.Clock.Now()
	out := make(map[string]*domain.Identity, len(grouped))
	for email, slots := range grouped {
		id, err := s.Identities.Get(ctx, tenant, email)
		if err != nil {
			return nil, fmt.Errorf("get identity %s: %w", email, err)
		}
		if id == nil {
			id = &domain.Identity{
				TenantID:        tenant,
				Email:           email,
				Platforms:       make(map[accounts.Platform]*domain.Slot),
				FirstResolvedAt: now,
			}
		}
		if id.Platforms == nil {
			id.Platforms = make(map[accounts.Platform]*domain.Slot)
		}
		for p, a := range slots {
			id.Platforms[p] = domain.SlotFromAccount(a)
		}
		id.LastResolvedAt = now

		// invariant: zero populated slots must not persist
		if len(id.Platforms) == 0 {
			continue
		}
		if err := s.Identities.Upsert(ctx, id); err != nil {
			return nil, fmt.Errorf("upsert identity %s: %w", email, err)
		}
		out[email] = id
	}
	return out, nil
}

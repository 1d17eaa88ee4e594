package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/automaton-iam/internal/application"
	"github.com/bryanwahyu/automaton-iam/internal/domain/accounts"
	"github.com/bryanwahyu/automaton-iam/internal/domain/syncerrors"
	"github.com/bryanwahyu/automaton-iam/internal/domain/syncruns"
)

// DefaultWorkers bounds the SyncAll fan-out so we respect external API rate
// limits.
const DefaultWorkers = 3

// Service implements use-cases untuk platform sync.
// Safe for concurrent use across tenants; the caller serializes per tenant.
type Service struct {
	Accounts   accounts.Repository
	Runs       syncruns.Repository
	SyncErrors syncerrors.Repository
	Connector  accounts.CredentialConnector
	Adapters   map[accounts.Platform]accounts.Adapter
	Snapshots  syncruns.SnapshotStore // optional
	Clock      application.Clock
	Workers    int
}

// Result is the per-platform outcome of a sync
type Result struct {
	Platform       accounts.Platform `json:"platform"`
	RunID          string            `json:"run_id,omitempty"`
	Synced         int               `json:"synced"`
	Skipped        int               `json:"skipped"`
	Conflicts      int               `json:"conflicts"`
	MarkedInactive int               `json:"marked_inactive"`
	Err            error             `json:"-"`
	ErrorTag       string            `json:"error,omitempty"`
}

// Sync fetches and upserts one platform for a tenant. Credential or fetch
// failure returns before any stored account row is touched (fail closed).
// No retries here; transient failures surface to the caller.
func (s *Service) Sync(ctx context.Context, tenant string, platform accounts.Platform) (Result, error) {
	start := s.Clock.Now()
	res := Result{Platform: platform}

	adapter, ok := s.Adapters[platform]
	if !ok {
		res.Err = fmt.Errorf("%w: no adapter for %s", accounts.ErrCredentialNotConfigured, platform)
		res.ErrorTag = ErrorTag(res.Err)
		return res, res.Err
	}

	run := &syncruns.Run{
		ID:        syncruns.RunID(fmt.Sprintf("%s-%s", uuid.New().String(), platform)),
		TenantID:  tenant,
		Platform:  platform,
		StartedAt: start,
		Status:    syncruns.StatusRunning,
	}
	res.RunID = string(run.ID)

	token, err := s.Connector.GetCredential(ctx, tenant, platform)
	if err != nil {
		if !errors.Is(err, accounts.ErrCredentialUnavailable) {
			err = fmt.Errorf("%w: %v", accounts.ErrCredentialUnavailable, err)
		}
		return s.fail(ctx, run, res, start, err)
	}

	raw, err := adapter.FetchAccounts(ctx, token)
	if err != nil {
		// connector timeouts and transport failures are the same thing to
		// the caller: try again later
		if !errors.Is(err, accounts.ErrPlatformUnreachable) {
			err = fmt.Errorf("%w: %v", accounts.ErrPlatformUnreachable, err)
		}
		return s.fail(ctx, run, res, start, err)
	}

	// the fetch is fully materialized; from here on failures are per-record
	if err := s.Runs.Save(ctx, run); err != nil {
		log.Printf("sync: save run failed tenant=%s platform=%s err=%v", tenant, platform, err)
	}

	existing, err := s.Accounts.ListActive(ctx, tenant, platform)
	if err != nil {
		return s.fail(ctx, run, res, start, fmt.Errorf("list active accounts: %w", err))
	}
	prior := make(map[string]*accounts.Account, len(existing))
	for _, a := range existing {
		prior[a.NativeID] = a
	}

	now := s.Clock.Now()
	seen := make([]string, 0, len(raw))
	synced := make([]*accounts.Account, 0, len(raw))
	for _, rec := range raw {
		acct, nerr := adapter.Normalize(rec)
		if nerr != nil {
			res.Skipped++
			s.recordError(ctx, run, syncerrors.KindMalformedRecord, "", nerr.Error())
			continue
		}
		acct.TenantID = tenant
		acct.Platform = platform
		acct.Email = accounts.NormalizeEmail(acct.Email)
		acct.Lifecycle = accounts.LifecycleActive
		acct.SyncedAt = now

		if old, ok := prior[acct.NativeID]; ok && old.Email != "" && acct.Email != "" && old.Email != acct.Email {
			// most-recent wins, but never silently
			res.Conflicts++
			msg := fmt.Sprintf("%v: native id %s email %q -> %q", accounts.ErrMergeConflict, acct.NativeID, old.Email, acct.Email)
			log.Printf("sync: tenant=%s platform=%s %s", tenant, platform, msg)
			s.recordError(ctx, run, syncerrors.KindMergeConflict, acct.NativeID, msg)
		}

		if err := s.Accounts.Upsert(ctx, acct); err != nil {
			return s.fail(ctx, run, res, start, fmt.Errorf("upsert account %s: %w", acct.NativeID, err))
		}
		seen = append(seen, acct.NativeID)
		synced = append(synced, acct)
		res.Synced++
	}

	// soft removal: active rows absent from this fetch are flagged inactive.
	// This must survive even if the next re-fetch errors out.
	marked, err := s.Accounts.MarkInactive(ctx, tenant, platform, seen, now)
	if err != nil {
		return s.fail(ctx, run, res, start, fmt.Errorf("mark inactive: %w", err))
	}
	res.MarkedInactive = int(marked)

	if s.Snapshots != nil {
		key := fmt.Sprintf("%s/%s/%s.json", tenant, platform, run.ID)
		url, serr := s.Snapshots.UploadJSON(ctx, key, synced)
		if serr != nil {
			log.Printf("sync: snapshot upload failed tenant=%s platform=%s err=%v", tenant, platform, serr)
		} else {
			run.SnapshotURL = url
		}
	}

	run.Status = syncruns.StatusSuccess
	if res.Skipped > 0 || res.Conflicts > 0 {
		run.Status = syncruns.StatusPartial
	}
	run.AccountsSynced = res.Synced
	run.RecordsSkipped = res.Skipped
	run.MergeConflicts = res.Conflicts
	run.MarkedInactive = res.MarkedInactive
	run.DurationMS = s.Clock.Now().Sub(start).Milliseconds()
	if err := s.Runs.Save(ctx, run); err != nil {
		log.Printf("sync: save run failed tenant=%s platform=%s err=%v", tenant, platform, err)
	}
	return res, nil
}

// SyncAll fans out one Sync per configured platform with a bounded worker
// pool and joins on all of them. One platform's failure never blocks or
// rolls back another's.
func (s *Service) SyncAll(ctx context.Context, tenant string) []Result {
	platforms := make([]accounts.Platform, 0, len(s.Adapters))
	for p := range s.Adapters {
		platforms = append(platforms, p)
	}
	accounts.SortPlatforms(platforms)

	workers := s.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	sem := make(chan struct{}, workers)
	results := make([]Result, len(platforms))

	var wg sync.WaitGroup
	for i, p := range platforms {
		wg.Add(1)
		go func(i int, p accounts.Platform) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			r, err := s.Sync(ctx, tenant, p)
			if err != nil {
				log.Printf("sync: tenant=%s platform=%s err=%v", tenant, p, err)
			}
			results[i] = r
		}(i, p)
	}
	wg.Wait()
	return results
}

func (s *Service) fail(ctx context.Context, run *syncruns.Run, res Result, start time.Time, err error) (Result, error) {
	res.Err = err
	res.ErrorTag = ErrorTag(err)
	run.Status = syncruns.StatusFailed
	run.ErrorTag = res.ErrorTag
	run.AccountsSynced = res.Synced
	run.RecordsSkipped = res.Skipped
	run.MergeConflicts = res.Conflicts
	run.DurationMS = s.Clock.Now().Sub(start).Milliseconds()
	if serr := s.Runs.Save(ctx, run); serr != nil {
		log.Printf("sync: save failed run tenant=%s platform=%s err=%v", run.TenantID, run.Platform, serr)
	}
	return res, err
}

func (s *Service) recordError(ctx context.Context, run *syncruns.Run, kind, nativeID, msg string) {
	if s.SyncErrors == nil {
		return
	}
	e := &syncerrors.SyncError{
		TenantID:  run.TenantID,
		RunID:     string(run.ID),
		Platform:  string(run.Platform),
		Kind:      kind,
		NativeID:  nativeID,
		Message:   msg,
		CreatedAt: s.Clock.Now(),
	}
	if err := s.SyncErrors.Save(ctx, e); err != nil {
		log.Printf("sync: save sync error failed tenant=%s err=%v", run.TenantID, err)
	}
}

// ErrorTag maps an error to its user-facing kind
func ErrorTag(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, accounts.ErrCredentialNotConfigured):
		return "credential_not_configured"
	case errors.Is(err, accounts.ErrCredentialExpired):
		return "credential_expired"
	case errors.Is(err, accounts.ErrCredentialUnavailable):
		return "credential_unavailable"
	case errors.Is(err, accounts.ErrPlatformUnreachable):
		return "platform_unreachable"
	}
	return "internal"
}

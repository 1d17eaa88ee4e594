package audit

import (
	"context"
	"log"
	"time"

	"github.com/bryanwahyu/automaton-iam/internal/domain/accounts"
	"github.com/bryanwahyu/automaton-iam/internal/domain/risks"
	"github.com/bryanwahyu/automaton-iam/internal/domain/syncruns"
)

// RunRepository mirrors writes to a secondary store. Reads stay on the
// primary; a mirror failure is logged, never propagated.
type RunRepository struct {
	Primary syncruns.Repository
	Mirror  syncruns.Repository
}

func (t *RunRepository) Save(ctx context.Context, run *syncruns.Run) error {
	if err := t.Primary.Save(ctx, run); err != nil {
		return err
	}
	if err := t.Mirror.Save(ctx, run); err != nil {
		log.Printf("audit mirror run_id=%s err=%v", run.ID, err)
	}
	return nil
}

func (t *RunRepository) Latest(ctx context.Context, tenant string, limit int) ([]*syncruns.Run, error) {
	return t.Primary.Latest(ctx, tenant, limit)
}

func (t *RunRepository) LastSuccess(ctx context.Context, tenant string, platform accounts.Platform) (*syncruns.Run, error) {
	return t.Primary.LastSuccess(ctx, tenant, platform)
}

// FindingRepository mirrors finding writes the same way.
type FindingRepository struct {
	Primary risks.Repository
	Mirror  risks.Repository
}

func (t *FindingRepository) Save(ctx context.Context, f *risks.Finding) error {
	if err := t.Primary.Save(ctx, f); err != nil {
		return err
	}
	if err := t.Mirror.Save(ctx, f); err != nil {
		log.Printf("audit mirror finding_id=%s err=%v", f.ID, err)
	}
	return nil
}

func (t *FindingRepository) Get(ctx context.Context, tenant, id string) (*risks.Finding, error) {
	return t.Primary.Get(ctx, tenant, id)
}

func (t *FindingRepository) List(ctx context.Context, tenant string, status risks.Status) ([]*risks.Finding, error) {
	return t.Primary.List(ctx, tenant, status)
}

func (t *FindingRepository) Resolve(ctx context.Context, tenant, id, resolvedBy string, at time.Time) error {
	if err := t.Primary.Resolve(ctx, tenant, id, resolvedBy, at); err != nil {
		return err
	}
	if err := t.Mirror.Resolve(ctx, tenant, id, resolvedBy, at); err != nil {
		log.Printf("audit mirror resolve finding_id=%s err=%v", id, err)
	}
	return nil
}

package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bryanwahyu/automaton-iam/internal/domain/accounts"
	"github.com/bryanwahyu/automaton-iam/internal/domain/risks"
	"github.com/bryanwahyu/automaton-iam/internal/domain/syncruns"
)

type memRunStore struct {
	saved   []*syncruns.Run
	saveErr error
}

func (m *memRunStore) Save(_ context.Context, r *syncruns.Run) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, r)
	return nil
}

func (m *memRunStore) Latest(_ context.Context, _ string, _ int) ([]*syncruns.Run, error) {
	return m.saved, nil
}

func (m *memRunStore) LastSuccess(_ context.Context, _ string, _ accounts.Platform) (*syncruns.Run, error) {
	if len(m.saved) == 0 {
		return nil, nil
	}
	return m.saved[len(m.saved)-1], nil
}

type memFindingStore struct {
	saved    []*risks.Finding
	resolved []string
	saveErr  error
}

func (m *memFindingStore) Save(_ context.Context, f *risks.Finding) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, f)
	return nil
}

func (m *memFindingStore) Get(_ context.Context, _, id string) (*risks.Finding, error) {
	for _, f := range m.saved {
		if f.ID == id {
			return f, nil
		}
	}
	return nil, errors.New("not found")
}

func (m *memFindingStore) List(_ context.Context, _ string, _ risks.Status) ([]*risks.Finding, error) {
	return m.saved, nil
}

func (m *memFindingStore) Resolve(_ context.Context, _, id, _ string, _ time.Time) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.resolved = append(m.resolved, id)
	return nil
}

func TestRunSaveReachesBothStores(t *testing.T) {
	primary := &memRunStore{}
	mirror := &memRunStore{}
	tee := &RunRepository{Primary: primary, Mirror: mirror}

	run := &syncruns.Run{ID: "run-1", TenantID: "acme", Platform: accounts.PlatformSlack}
	if err := tee.Save(context.Background(), run); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(primary.saved) != 1 || len(mirror.saved) != 1 {
		t.Fatalf("want run in both stores, primary=%d mirror=%d", len(primary.saved), len(mirror.saved))
	}
}

func TestRunSaveMirrorFailureSwallowed(t *testing.T) {
	primary := &memRunStore{}
	mirror := &memRunStore{saveErr: errors.New("mirror down")}
	tee := &RunRepository{Primary: primary, Mirror: mirror}

	run := &syncruns.Run{ID: "run-2", TenantID: "acme", Platform: accounts.PlatformSlack}
	if err := tee.Save(context.Background(), run); err != nil {
		t.Fatalf("mirror failure must not propagate, got %v", err)
	}
	if len(primary.saved) != 1 {
		t.Fatalf("primary write count = %d, want 1", len(primary.saved))
	}
}

func TestRunSavePrimaryFailurePropagated(t *testing.T) {
	primary := &memRunStore{saveErr: errors.New("primary down")}
	mirror := &memRunStore{}
	tee := &RunRepository{Primary: primary, Mirror: mirror}

	err := tee.Save(context.Background(), &syncruns.Run{ID: "run-3"})
	if err == nil {
		t.Fatal("want primary error back")
	}
	if len(mirror.saved) != 0 {
		t.Fatalf("mirror wrote %d runs after primary failure, want 0", len(mirror.saved))
	}
}

func TestFindingSaveAndResolveTeed(t *testing.T) {
	primary := &memFindingStore{}
	mirror := &memFindingStore{}
	tee := &FindingRepository{Primary: primary, Mirror: mirror}

	f := &risks.Finding{ID: "f-1", TenantID: "acme", Type: risks.RiskAdminWithout2FA}
	if err := tee.Save(context.Background(), f); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := tee.Resolve(context.Background(), "acme", "f-1", "ops", time.Now()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(mirror.saved) != 1 || len(mirror.resolved) != 1 {
		t.Fatalf("mirror saved=%d resolved=%d, want 1/1", len(mirror.saved), len(mirror.resolved))
	}
}

func TestFindingResolveMirrorFailureSwallowed(t *testing.T) {
	primary := &memFindingStore{}
	mirror := &memFindingStore{saveErr: errors.New("mirror down")}
	tee := &FindingRepository{Primary: primary, Mirror: mirror}

	if err := tee.Resolve(context.Background(), "acme", "f-2", "ops", time.Now()); err != nil {
		t.Fatalf("mirror failure must not propagate, got %v", err)
	}
	if len(primary.resolved) != 1 {
		t.Fatalf("primary resolve count = %d, want 1", len(primary.resolved))
	}
}

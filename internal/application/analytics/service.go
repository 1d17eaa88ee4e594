package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/automaton-iam/internal/application"
	"github.com/bryanwahyu/automaton-iam/internal/domain/accounts"
	"github.com/bryanwahyu/automaton-iam/internal/domain/ai"
	"github.com/bryanwahyu/automaton-iam/internal/domain/identity"
	"github.com/bryanwahyu/automaton-iam/internal/domain/licensing"
	"github.com/bryanwahyu/automaton-iam/internal/domain/risks"
)

// Service runs the derivation passes over the tenant's resolved snapshot
// and persists their output. Each pass is independently schedulable; the
// caller serializes per tenant.
type Service struct {
	Identities      identity.Repository
	Findings        risks.Repository
	Recommendations licensing.RecommendationRepository
	Pricing         map[accounts.Platform]licensing.PricingTable
	Advisor         ai.Client // optional
	Clock           application.Clock

	InactivityThreshold    time.Duration
	CriticalMonthlySavings float64
}

// Result rekap satu analytics run
type Result struct {
	Identities      int `json:"identities"`
	Skipped         int `json:"skipped"`
	Ghosts          int `json:"ghosts"`
	OpenFindings    int `json:"open_findings"`
	Recommendations int `json:"recommendations"`
}

func (s *Service) threshold() time.Duration {
	if s.InactivityThreshold > 0 {
		return s.InactivityThreshold
	}
	return DefaultInactivityThreshold
}

func (s *Service) snapshot(ctx context.Context, tenant string) ([]*identity.Identity, int, error) {
	all, err := s.Identities.List(ctx, tenant)
	if err != nil {
		return nil, 0, fmt.Errorf("list identities: %w", err)
	}
	valid := all[:0]
	skipped := 0
	for _, id := range all {
		if !id.Valid() {
			// malformed record: excluded from the pass, never fatal
			skipped++
			log.Printf("analytics: tenant=%s skipping malformed identity %q", tenant, id.Email)
			continue
		}
		valid = append(valid, id)
	}
	return valid, skipped, nil
}

// RunGhostPass recomputes and persists ghost blocks only
func (s *Service) RunGhostPass(ctx context.Context, tenant string) (int, error) {
	ids, _, err := s.snapshot(ctx, tenant)
	if err != nil {
		return 0, err
	}
	now := s.Clock.Now()
	ghosts := 0
	for _, id := range DetectGhosts(ids, now, s.threshold()) {
		if err := s.Identities.UpdateGhost(ctx, tenant, id.Email, id.Ghost); err != nil {
			return ghosts, fmt.Errorf("update ghost %s: %w", id.Email, err)
		}
		if id.Ghost.IsGhost {
			ghosts++
		}
	}
	return ghosts, nil
}

// RunRiskPass scores risks, reconciles findings against the store and
// refreshes per-identity risk blocks. Resolved findings are never reopened;
// a re-triggered condition opens a new finding.
func (s *Service) RunRiskPass(ctx context.Context, tenant string) (int, error) {
	ids, _, err := s.snapshot(ctx, tenant)
	if err != nil {
		return 0, err
	}
	now := s.Clock.Now()
	candidates := ScoreRisks(ids, now, s.threshold())

	existing, err := s.Findings.List(ctx, tenant, "")
	if err != nil {
		return 0, fmt.Errorf("list findings: %w", err)
	}
	for _, f := range ReconcileFindings(existing, candidates, now, uuid.NewString) {
		if err := s.Findings.Save(ctx, f); err != nil {
			return 0, fmt.Errorf("save finding %s: %w", f.ID, err)
		}
	}

	open, err := s.Findings.List(ctx, tenant, risks.StatusOpen)
	if err != nil {
		return 0, fmt.Errorf("list open findings: %w", err)
	}
	for _, id := range ids {
		sum := SummarizeRisk(id, open, now)
		if err := s.Identities.UpdateRisk(ctx, tenant, id.Email, sum); err != nil {
			return 0, fmt.Errorf("update risk %s: %w", id.Email, err)
		}
	}
	return len(open), nil
}

// RunLicensePass calculates waste per configured platform, regenerates
// recommendations (implemented ones survive untouched) and refreshes
// per-identity waste blocks.
func (s *Service) RunLicensePass(ctx context.Context, tenant string) (int, error) {
	ids, _, err := s.snapshot(ctx, tenant)
	if err != nil {
		return 0, err
	}
	now := s.Clock.Now()

	platforms := make([]accounts.Platform, 0, len(s.Pricing))
	for p := range s.Pricing {
		platforms = append(platforms, p)
	}
	accounts.SortPlatforms(platforms)

	total := 0
	var opts []*licensing.Optimization
	for _, p := range platforms {
		pricing := s.Pricing[p]
		opt := CalculateWaste(ids, p, pricing, now, s.threshold())
		opt.TenantID = tenant
		opts = append(opts, opt)

		recs := GenerateRecommendations(opt, pricing, s.CriticalMonthlySavings, now, uuid.NewString)
		if err := s.Recommendations.DeleteUnimplemented(ctx, tenant, p); err != nil {
			return total, fmt.Errorf("clear recommendations %s: %w", p, err)
		}
		for _, r := range recs {
			s.advise(ctx, r)
			if err := s.Recommendations.Save(ctx, r); err != nil {
				return total, fmt.Errorf("save recommendation %s: %w", r.ID, err)
			}
		}
		total += len(recs)
	}

	for _, id := range ids {
		sum := SummarizeWaste(id, opts, now)
		if err := s.Identities.UpdateWaste(ctx, tenant, id.Email, sum); err != nil {
			return total, fmt.Errorf("update waste %s: %w", id.Email, err)
		}
	}
	return total, nil
}

// Analyze runs all three passes over the same snapshot
func (s *Service) Analyze(ctx context.Context, tenant string) (*Result, error) {
	_, skipped, err := s.snapshot(ctx, tenant)
	if err != nil {
		return nil, err
	}
	res := &Result{Skipped: skipped}

	if res.Ghosts, err = s.RunGhostPass(ctx, tenant); err != nil {
		return res, err
	}
	if res.OpenFindings, err = s.RunRiskPass(ctx, tenant); err != nil {
		return res, err
	}
	if res.Recommendations, err = s.RunLicensePass(ctx, tenant); err != nil {
		return res, err
	}

	ids, _, err := s.snapshot(ctx, tenant)
	if err != nil {
		return res, err
	}
	res.Identities = len(ids)
	return res, nil
}

// advise rewrites the description into tenant-facing prose when an advisor
// is configured. Best effort: template prose stays on any failure, and the
// numbers are never AI-touched.
func (s *Service) advise(ctx context.Context, r *licensing.Recommendation) {
	if s.Advisor == nil || r.Savings.Monthly <= 0 {
		return
	}
	digest, err := json.Marshal(map[string]any{
		"platform":        r.Platform,
		"category":        r.Category,
		"priority":        r.Priority,
		"monthly_savings": r.Savings.Monthly,
		"currency":        r.Savings.Currency,
		"affected_users":  len(r.AffectedUsers),
	})
	if err != nil {
		return
	}
	prose, err := s.Advisor.Advise(ctx, string(digest))
	if err != nil {
		if errors.Is(err, ai.ErrQuotaExceeded) {
			log.Printf("analytics: advisor quota exceeded tenant=%s", r.TenantID)
		} else {
			log.Printf("analytics: advisor failed tenant=%s err=%v", r.TenantID, err)
		}
		return
	}
	if prose != "" {
		r.Description = prose
	}
}

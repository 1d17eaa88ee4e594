package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/bryanwahyu/automaton-iam/internal/application"
	appanalytics "github.com/bryanwahyu/automaton-iam/internal/application/analytics"
	appidentity "github.com/bryanwahyu/automaton-iam/internal/application/identity"
	appsync "github.com/bryanwahyu/automaton-iam/internal/application/sync"
	"github.com/bryanwahyu/automaton-iam/internal/domain/accounts"
	domai "github.com/bryanwahyu/automaton-iam/internal/domain/ai"
	"github.com/bryanwahyu/automaton-iam/internal/domain/identity"
	"github.com/bryanwahyu/automaton-iam/internal/domain/licensing"
	"github.com/bryanwahyu/automaton-iam/internal/domain/risks"
	"github.com/bryanwahyu/automaton-iam/internal/domain/syncerrors"
	"github.com/bryanwahyu/automaton-iam/internal/domain/syncruns"
)

// Router is the ops/trigger surface: health, on-demand sync and analyze,
// read endpoints, and the two external signals (resolve a finding, mark a
// recommendation implemented). Product APIs live elsewhere.
type Router struct {
	syncSvc      *appsync.Service
	resolver     *appidentity.Service
	analyticsSvc *appanalytics.Service

	identities      identity.Repository
	findings        risks.Repository
	recommendations licensing.RecommendationRepository
	runs            syncruns.Repository
	syncErrors      syncerrors.Repository

	locks *application.TenantLocks
	clock application.Clock
}

type Deps struct {
	Sync            *appsync.Service
	Resolver        *appidentity.Service
	Analytics       *appanalytics.Service
	Identities      identity.Repository
	Findings        risks.Repository
	Recommendations licensing.RecommendationRepository
	Runs            syncruns.Repository
	SyncErrors      syncerrors.Repository
	Locks           *application.TenantLocks
	Clock           application.Clock
	Health          http.HandlerFunc
}

func NewRouter(d Deps) http.Handler {
	r := &Router{
		syncSvc:         d.Sync,
		resolver:        d.Resolver,
		analyticsSvc:    d.Analytics,
		identities:      d.Identities,
		findings:        d.Findings,
		recommendations: d.Recommendations,
		runs:            d.Runs,
		syncErrors:      d.SyncErrors,
		locks:           d.Locks,
		clock:           d.Clock,
	}
	if r.locks == nil {
		r.locks = application.NewTenantLocks()
	}

	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	if d.Health != nil {
		mux.Get("/health", d.Health)
	} else {
		mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("ok"))
		})
	}

	mux.Route("/v1/{tenant}", func(rt chi.Router) {
		rt.Post("/sync", r.wrap(r.handleSync))
		rt.Post("/analyze", r.wrap(r.handleAnalyze))
		rt.Get("/identities", r.wrap(r.handleIdentities))
		rt.Get("/identities/{email}", r.wrap(r.handleIdentity))
		rt.Get("/findings", r.wrap(r.handleFindings))
		rt.Get("/findings/{id}", r.wrap(r.handleFinding))
		rt.Post("/findings/{id}/resolve", r.wrap(r.handleResolveFinding))
		rt.Get("/recommendations", r.wrap(r.handleRecommendations))
		rt.Get("/recommendations/{id}", r.wrap(r.handleRecommendation))
		rt.Post("/recommendations/{id}/implement", r.wrap(r.handleImplement))
		rt.Post("/recommendations/{id}/actual-savings", r.wrap(r.handleActualSavings))
		rt.Get("/sync/runs", r.wrap(r.handleRuns))
		rt.Get("/sync/runs/{id}/errors", r.wrap(r.handleRunErrors))
		rt.Get("/summary", r.wrap(r.handleSummary))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			if errors.Is(err, domai.ErrQuotaExceeded) {
				http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}

// POST /v1/{tenant}/sync
// Body optional: {"platform": "slack"}; omitted means all configured
// platforms. Per-platform outcomes come back individually; one platform's
// failure is reported, not propagated.
func (r *Router) handleSync(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")

	var body struct {
		Platform string `json:"platform"`
	}
	if req.Body != nil && req.ContentLength != 0 {
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			return err
		}
	}

	unlock := r.locks.Lock(tenant)
	defer unlock()

	var results []appsync.Result
	if body.Platform != "" {
		p := accounts.Platform(body.Platform)
		if !p.Valid() {
			http.Error(w, fmt.Sprintf("unknown platform %q", body.Platform), http.StatusBadRequest)
			return nil
		}
		res, _ := r.syncSvc.Sync(req.Context(), tenant, p)
		results = []appsync.Result{res}
	} else {
		results = r.syncSvc.SyncAll(req.Context(), tenant)
	}

	return writeJSON(w, map[string]any{"results": results})
}

// POST /v1/{tenant}/analyze runs resolve plus all derivation passes
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")

	unlock := r.locks.Lock(tenant)
	defer unlock()

	if _, err := r.resolver.Resolve(req.Context(), tenant); err != nil {
		return err
	}
	res, err := r.analyticsSvc.Analyze(req.Context(), tenant)
	if err != nil {
		return err
	}
	return writeJSON(w, res)
}

// GET /v1/{tenant}/identities
func (r *Router) handleIdentities(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	list, err := r.identities.List(req.Context(), tenant)
	if err != nil {
		return err
	}
	return writeJSON(w, list)
}

// GET /v1/{tenant}/identities/{email}
func (r *Router) handleIdentity(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	email := accounts.NormalizeEmail(chi.URLParam(req, "email"))
	id, err := r.identities.Get(req.Context(), tenant, email)
	if err != nil {
		return err
	}
	if id == nil {
		return sql.ErrNoRows
	}
	return writeJSON(w, id)
}

// GET /v1/{tenant}/findings?status=open
func (r *Router) handleFindings(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	status := risks.Status(req.URL.Query().Get("status"))
	list, err := r.findings.List(req.Context(), tenant, status)
	if err != nil {
		return err
	}
	return writeJSON(w, list)
}

// GET /v1/{tenant}/findings/{id}
func (r *Router) handleFinding(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	f, err := r.findings.Get(req.Context(), tenant, chi.URLParam(req, "id"))
	if err != nil {
		return err
	}
	return writeJSON(w, f)
}

// POST /v1/{tenant}/findings/{id}/resolve
// Body: {"resolved_by": "<who>"}. The explicit external action; re-scoring
// never resets it.
func (r *Router) handleResolveFinding(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")

	var body struct {
		ResolvedBy string `json:"resolved_by"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}
	if body.ResolvedBy == "" {
		return fmt.Errorf("resolved_by is required")
	}
	if err := r.findings.Resolve(req.Context(), tenant, id, body.ResolvedBy, r.clock.Now()); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// GET /v1/{tenant}/recommendations
func (r *Router) handleRecommendations(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	list, err := r.recommendations.List(req.Context(), tenant)
	if err != nil {
		return err
	}
	return writeJSON(w, list)
}

// GET /v1/{tenant}/recommendations/{id}
func (r *Router) handleRecommendation(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	rec, err := r.recommendations.Get(req.Context(), tenant, chi.URLParam(req, "id"))
	if err != nil {
		return err
	}
	return writeJSON(w, rec)
}

// POST /v1/{tenant}/recommendations/{id}/implement
// Body: {"implemented_by": "<who>"}
func (r *Router) handleImplement(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")

	var body struct {
		ImplementedBy string `json:"implemented_by"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}
	if body.ImplementedBy == "" {
		return fmt.Errorf("implemented_by is required")
	}
	if err := r.recommendations.MarkImplemented(req.Context(), tenant, id, body.ImplementedBy, r.clock.Now()); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// POST /v1/{tenant}/recommendations/{id}/actual-savings
// Body: {"amount": 123.45}. Writable even after implementation
func (r *Router) handleActualSavings(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")

	var body struct {
		Amount float64 `json:"amount"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}
	if err := r.recommendations.SetActualSavings(req.Context(), tenant, id, body.Amount); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// GET /v1/{tenant}/sync/runs?limit=
func (r *Router) handleRuns(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	list, err := r.runs.Latest(req.Context(), tenant, limit)
	if err != nil {
		return err
	}
	return writeJSON(w, list)
}

// GET /v1/{tenant}/sync/runs/{id}/errors
func (r *Router) handleRunErrors(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	runID := chi.URLParam(req, "id")
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	list, err := r.syncErrors.ListByRun(req.Context(), tenant, runID, limit)
	if err != nil {
		return err
	}
	return writeJSON(w, list)
}

// GET /v1/{tenant}/summary
func (r *Router) handleSummary(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")

	ids, err := r.identities.List(req.Context(), tenant)
	if err != nil {
		return err
	}
	open, err := r.findings.List(req.Context(), tenant, risks.StatusOpen)
	if err != nil {
		return err
	}
	recs, err := r.recommendations.List(req.Context(), tenant)
	if err != nil {
		return err
	}

	ghosts := 0
	for _, id := range ids {
		if id.Ghost.IsGhost {
			ghosts++
		}
	}
	var monthly float64
	for _, rec := range recs {
		if !rec.Implemented {
			monthly += rec.Savings.Monthly
		}
	}

	// last completed sync per platform; platforms never synced are omitted
	lastSync := map[accounts.Platform]time.Time{}
	for _, p := range accounts.AllPlatforms() {
		run, err := r.runs.LastSuccess(req.Context(), tenant, p)
		if err != nil {
			return err
		}
		if run != nil {
			lastSync[p] = run.StartedAt
		}
	}

	return writeJSON(w, map[string]any{
		"identities":               len(ids),
		"ghosts":                   ghosts,
		"open_findings":            len(open),
		"recommendations":          len(recs),
		"potential_monthly_saving": monthly,
		"last_sync":                lastSync,
	})
}

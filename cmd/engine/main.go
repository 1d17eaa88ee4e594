package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bryanwahyu/automaton-iam/internal/application"
	appanalytics "github.com/bryanwahyu/automaton-iam/internal/application/analytics"
	appidentity "github.com/bryanwahyu/automaton-iam/internal/application/identity"
	appsync "github.com/bryanwahyu/automaton-iam/internal/application/sync"
	"github.com/bryanwahyu/automaton-iam/internal/config"
	"github.com/bryanwahyu/automaton-iam/internal/domain/accounts"
	"github.com/bryanwahyu/automaton-iam/internal/domain/risks"
	"github.com/bryanwahyu/automaton-iam/internal/domain/syncruns"
	"github.com/bryanwahyu/automaton-iam/internal/infra/ai/openai"
	"github.com/bryanwahyu/automaton-iam/internal/infra/connector"
	"github.com/bryanwahyu/automaton-iam/internal/infra/db/audit"
	mysqlp "github.com/bryanwahyu/automaton-iam/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/automaton-iam/internal/infra/db/postgres"
	"github.com/bryanwahyu/automaton-iam/internal/infra/httpserver"
	"github.com/bryanwahyu/automaton-iam/internal/infra/platforms"
	minioStore "github.com/bryanwahyu/automaton-iam/internal/infra/storage"
	"github.com/bryanwahyu/automaton-iam/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// connect MySQL
	db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
	if err != nil {
		log.Fatalf("mysql connect error: %v", err)
	}
	defer db.Close()

	// init repos
	accountRepo := mysqlp.NewAccountRepository(db)
	identityRepo := mysqlp.NewIdentityRepository(db)
	recRepo := mysqlp.NewRecommendationRepository(db)
	syncErrRepo := mysqlp.NewSyncErrorRepository(db)

	var runRepo syncruns.Repository = mysqlp.NewSyncRunRepository(db)
	var findingRepo risks.Repository = mysqlp.NewFindingRepository(db)

	// optional audit mirror (postgres)
	checkers := map[string]middleware.HealthChecker{
		"mysql": &middleware.DatabaseHealthChecker{DB: db},
	}
	if cfg.Audit.Enabled {
		auditDB, err := postgresp.Connect(ctx, cfg.AuditDSN())
		if err != nil {
			log.Fatalf("audit db connect error: %v", err)
		}
		defer auditDB.Close()
		runRepo = &audit.RunRepository{
			Primary: runRepo,
			Mirror:  postgresp.NewSyncRunRepository(auditDB),
		}
		findingRepo = &audit.FindingRepository{
			Primary: findingRepo,
			Mirror:  postgresp.NewFindingRepository(auditDB),
		}
		checkers["audit"] = &middleware.DatabaseHealthChecker{DB: auditDB}
	}

	// init minio snapshot store
	var snapshots syncruns.SnapshotStore
	if cfg.Minio.Endpoint != "" {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		snapshots = store
		checkers["snapshots"] = middleware.CheckerFunc(store.Ping)
	}

	// init platform adapters dari feed config
	adapters := make(map[accounts.Platform]accounts.Adapter, len(cfg.Feeds))
	for name, feed := range cfg.Feeds {
		p := accounts.Platform(name)
		var fetch platforms.RawFetcher
		switch {
		case feed.URL != "":
			fetch = platforms.HTTPFeed(feed.URL)
		case feed.Path != "":
			fetch = platforms.FileFeed(feed.Path)
		default:
			log.Fatalf("feed %s: url or path required", name)
		}
		adapter, ok := platforms.New(p, fetch)
		if !ok {
			log.Fatalf("feed %s: no adapter", name)
		}
		adapters[p] = adapter
	}

	clock := application.SystemClock{}

	// init services
	syncSvc := &appsync.Service{
		Accounts:   accountRepo,
		Runs:       runRepo,
		SyncErrors: syncErrRepo,
		Connector:  connector.NewStatic(cfg.CredentialTokens()),
		Adapters:   adapters,
		Snapshots:  snapshots,
		Clock:      clock,
		Workers:    cfg.Sync.Workers,
	}
	resolver := &appidentity.Service{
		Accounts:   accountRepo,
		Identities: identityRepo,
		Clock:      clock,
	}
	analyticsSvc := &appanalytics.Service{
		Identities:             identityRepo,
		Findings:               findingRepo,
		Recommendations:        recRepo,
		Pricing:                cfg.PricingTables(),
		Clock:                  clock,
		InactivityThreshold:    cfg.InactivityThreshold(),
		CriticalMonthlySavings: cfg.Recommendations.CriticalMonthlySavings,
	}
	if cfg.OpenAI.APIKey != "" {
		analyticsSvc.Advisor = openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	}

	locks := application.NewTenantLocks()

	// init router
	mux := chi.NewRouter()
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.NewRateLimiter(60, 1).Middleware)
	mux.Mount("/", httpserver.NewRouter(httpserver.Deps{
		Sync:            syncSvc,
		Resolver:        resolver,
		Analytics:       analyticsSvc,
		Identities:      identityRepo,
		Findings:        findingRepo,
		Recommendations: recRepo,
		Runs:            runRepo,
		SyncErrors:      syncErrRepo,
		Locks:           locks,
		Clock:           clock,
		Health:          middleware.HealthHandler(checkers),
	}))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// scheduled reconciliation, kalau interval diset
	loopCtx, cancelLoop := context.WithCancel(ctx)
	defer cancelLoop()
	if cfg.Sync.IntervalMinutes > 0 {
		go runLoop(loopCtx, cfg, syncSvc, resolver, analyticsSvc, locks)
	}

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")
	cancelLoop()

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

// runLoop jalanin sync + analyze per tenant tiap interval
func runLoop(ctx context.Context, cfg *config.Config, syncSvc *appsync.Service, resolver *appidentity.Service, analyticsSvc *appanalytics.Service, locks *application.TenantLocks) {
	interval := time.Duration(cfg.Sync.IntervalMinutes) * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		for _, tenant := range cfg.TenantIDs() {
			reconcileTenant(ctx, tenant, syncSvc, resolver, analyticsSvc, locks)
		}
	}
}

func reconcileTenant(ctx context.Context, tenant string, syncSvc *appsync.Service, resolver *appidentity.Service, analyticsSvc *appanalytics.Service, locks *application.TenantLocks) {
	unlock := locks.Lock(tenant)
	defer unlock()

	results := syncSvc.SyncAll(ctx, tenant)
	for _, res := range results {
		if res.Err != nil {
			log.Printf("scheduled sync tenant=%s platform=%s err=%v", tenant, res.Platform, res.Err)
		}
	}
	if _, err := resolver.Resolve(ctx, tenant); err != nil {
		log.Printf("scheduled resolve tenant=%s err=%v", tenant, err)
		return
	}
	if _, err := analyticsSvc.Analyze(ctx, tenant); err != nil {
		log.Printf("scheduled analyze tenant=%s err=%v", tenant, err)
	}
}

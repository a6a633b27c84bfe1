// Command server runs the knowledgehub API: document governance, audit
// history, and reputation endpoints behind JWT auth.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"knowledgehub/internal/audit"
	auditmemory "knowledgehub/internal/audit/store/memory"
	auditpostgres "knowledgehub/internal/audit/store/postgres"
	dochandler "knowledgehub/internal/document/handler"
	docmetrics "knowledgehub/internal/document/metrics"
	docservice "knowledgehub/internal/document/service"
	docmemory "knowledgehub/internal/document/store/memory"
	docpostgres "knowledgehub/internal/document/store/postgres"
	"knowledgehub/internal/duplicate"
	jwttoken "knowledgehub/internal/jwt_token"
	"knowledgehub/internal/lifecycle"
	"knowledgehub/internal/notify"
	"knowledgehub/internal/platform/config"
	"knowledgehub/internal/platform/httpserver"
	"knowledgehub/internal/platform/logger"
	"knowledgehub/internal/platform/metrics"
	"knowledgehub/internal/platform/middleware"
	"knowledgehub/internal/platform/postgres"
	platformredis "knowledgehub/internal/platform/redis"
	"knowledgehub/internal/rbac"
	"knowledgehub/internal/reputation"
	rephandler "knowledgehub/internal/reputation/handler"
	repmetrics "knowledgehub/internal/reputation/metrics"
	repmemory "knowledgehub/internal/reputation/store/memory"
	redisstore "knowledgehub/internal/reputation/store/redis"
	"knowledgehub/pkg/platform/tx"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: PostgreSQL when a DSN is configured, in-memory otherwise. Both
	// postgres stores share one handle so governed writes and their audit
	// entries commit in one transaction.
	var (
		docStore   docservice.DocumentStore
		auditStore audit.Store
		txRunner   *tx.Runner
	)
	if cfg.PostgresDSN != "" {
		db, err := postgres.OpenDB(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Error("failed to open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := postgres.ApplySchema(ctx, db); err != nil {
			log.Error("failed to apply schema", "error", err)
			os.Exit(1)
		}

		docStore = docpostgres.New(db)
		auditStore = auditpostgres.New(db)
		txRunner = tx.NewRunner(db)
		log.Info("using postgres stores")
	} else {
		docStore = docmemory.NewInMemoryStore()
		auditStore = auditmemory.NewInMemoryStore()
		log.Warn("no KH_POSTGRES_DSN set, using in-memory stores")
	}

	// Optional ranking cache.
	var leaderboard *redisstore.Leaderboard
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		leaderboard, err = redisstore.New(redisClient)
		if err != nil {
			log.Error("failed to build leaderboard", "error", err)
			os.Exit(1)
		}
		log.Info("leaderboard cache enabled")
	}

	// Optional notification publisher.
	var notifier *notify.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		notifier, err = notify.New(ctx, cfg.KafkaBrokers, cfg.NotifyTopic, log)
		if err != nil {
			log.Error("failed to connect to kafka", "error", err)
			os.Exit(1)
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			notifier.Close(closeCtx)
		}()
		log.Info("notification publisher enabled", "topic", cfg.NotifyTopic)
	}

	auditPublisher := audit.NewPublisher(auditStore, audit.WithLogger(log))

	repEngineOpts := []reputation.Option{
		reputation.WithLogger(log),
		reputation.WithMetrics(repmetrics.New()),
	}
	if leaderboard != nil {
		repEngineOpts = append(repEngineOpts, reputation.WithLeaderboard(leaderboard))
	}
	repEngine, err := reputation.New(cfg.Reputation, repmemory.NewInMemoryStore(), repEngineOpts...)
	if err != nil {
		log.Error("failed to build reputation engine", "error", err)
		os.Exit(1)
	}

	authorizer := rbac.New(cfg.ReviewerRoles)

	svcOpts := []docservice.Option{
		docservice.WithLogger(log),
		docservice.WithAuditPublisher(auditPublisher),
		docservice.WithReputation(repEngine),
		docservice.WithMetrics(docmetrics.New()),
		docservice.WithCheckTimeout(cfg.CheckTimeout),
	}
	if notifier != nil {
		svcOpts = append(svcOpts, docservice.WithNotifier(notifier))
	}
	if txRunner != nil {
		svcOpts = append(svcOpts, docservice.WithTransactor(txRunner))
	}
	docService := docservice.New(docStore, duplicate.New(cfg.DuplicateThreshold), authorizer, lifecycle.New(authorizer), svcOpts...)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "knowledgehub")
	httpMetrics := metrics.New()

	router := chi.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(log))
	router.Use(middleware.Timeout(30 * time.Second))
	router.Use(middleware.ClientMetadata)
	router.Use(middleware.LatencyMiddleware(httpMetrics))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				http.Error(w, "redis unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())

	router.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(jwtService, log))
		dochandler.New(docService, log).Register(r)
		rephandler.New(repEngine, leaderboardOrNil(leaderboard), log).Register(r)
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting knowledgehub", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// leaderboardOrNil keeps a typed-nil *Leaderboard from masquerading as a
// non-nil interface in the handler.
func leaderboardOrNil(lb *redisstore.Leaderboard) rephandler.Leaderboard {
	if lb == nil {
		return nil
	}
	return lb
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/caseops-api/internal/config"
	branchHandler "github.com/jwalitptl/caseops-api/internal/handler/branch"
	casesHandler "github.com/jwalitptl/caseops-api/internal/handler/cases"
	"github.com/jwalitptl/caseops-api/internal/handler/health"
	promHandler "github.com/jwalitptl/caseops-api/internal/handler/prometheus"
	sessionHandler "github.com/jwalitptl/caseops-api/internal/handler/session"
	"github.com/jwalitptl/caseops-api/internal/middleware"
	"github.com/jwalitptl/caseops-api/internal/repository"
	"github.com/jwalitptl/caseops-api/internal/repository/memory"
	"github.com/jwalitptl/caseops-api/internal/repository/postgres"
	"github.com/jwalitptl/caseops-api/internal/router"
	assignmentService "github.com/jwalitptl/caseops-api/internal/service/assignment"
	branchService "github.com/jwalitptl/caseops-api/internal/service/branch"
	"github.com/jwalitptl/caseops-api/internal/service/casequery"
	"github.com/jwalitptl/caseops-api/internal/service/identity"
	"github.com/jwalitptl/caseops-api/pkg/auth"
	"github.com/jwalitptl/caseops-api/pkg/logger"
	"github.com/jwalitptl/caseops-api/pkg/messaging"
	"github.com/jwalitptl/caseops-api/pkg/messaging/redis"
	"github.com/jwalitptl/caseops-api/pkg/metrics"
	"github.com/jwalitptl/caseops-api/pkg/validator"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, lg, err := opts.load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, lg)
		},
	}
}

// stores is the set of repositories behind one database driver.
type stores struct {
	staff       repository.StaffRepository
	profiles    repository.ProfileRepository
	branches    repository.BranchRepository
	cases       repository.CaseRepository
	assignments repository.AssignmentRepository
	pinger      repository.Pinger
	close       func() error
}

func openStores(ctx context.Context, cfg config.DatabaseConfig, zl *zap.Logger, m *metrics.Metrics) (*stores, error) {
	if strings.EqualFold(cfg.Driver, "memory") {
		log.Warn().Msg("using in-memory storage; data is lost on exit")
		s := memory.NewStore()
		return &stores{
			staff:       s.Staff(),
			profiles:    s.Profiles(),
			branches:    s.Branches(),
			cases:       s.Cases(),
			assignments: s.Assignments(),
			pinger:      s,
			close:       func() error { return nil },
		}, nil
	}

	db, err := postgres.NewDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := postgres.MigrateUp(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}

	base := postgres.NewBaseRepository(db, zl, m)
	return &stores{
		staff:       postgres.NewStaffRepository(base),
		profiles:    postgres.NewProfileRepository(base),
		branches:    postgres.NewBranchRepository(base),
		cases:       postgres.NewCaseRepository(base),
		assignments: postgres.NewAssignmentRepository(base),
		pinger:      &base,
		close:       db.Close,
	}, nil
}

func openBroker(ctx context.Context, cfg config.RedisConfig) (messaging.Broker, error) {
	if cfg.URL == "" {
		log.Warn().Msg("redis url not set; assignment events are dropped")
		return messaging.NewNopBroker(), nil
	}
	broker, err := redis.NewRedisBroker(ctx, redis.Config{
		URL:          cfg.URL,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	}, log.Logger)
	if err != nil {
		return nil, err
	}
	return broker, nil
}

func newZapLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.JSON {
		zcfg = zap.NewProductionConfig()
	}
	if lvl, err := zapcore.ParseLevel(cfg.Level); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return zcfg.Build()
}

func serve(ctx context.Context, cfg *config.Config, lg *logger.Logger) error {
	gin.SetMode(gin.ReleaseMode)

	zl, err := newZapLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to build storage logger: %w", err)
	}
	defer zl.Sync() //nolint:errcheck

	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics(registry, cfg.Monitoring.Namespace)

	st, err := openStores(ctx, cfg.Database, zl, m)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer st.close()

	broker, err := openBroker(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to message broker: %w", err)
	}
	defer broker.Close()

	verifier, err := auth.NewJWTVerifier(auth.Config{
		Secret:   cfg.Session.Secret,
		Issuer:   cfg.Session.Issuer,
		Audience: cfg.Session.Audience,
		Leeway:   cfg.Session.Leeway,
	})
	if err != nil {
		return err
	}

	branchSvc := branchService.NewService(st.branches, cfg.Cache.BranchTTL)
	assignmentSvc := assignmentService.NewService(st.assignments, broker, m, lg)
	caseSvc := casequery.NewService(casequery.Repositories{
		Cases:       st.cases,
		Assignments: st.assignments,
		Profiles:    st.profiles,
		Staff:       st.staff,
	}, branchSvc, m, lg)

	authMiddleware := middleware.NewAuthMiddleware(verifier, identity.NewResolver(st.staff))

	handlers := router.Handlers{
		Cases:    casesHandler.NewHandler(caseSvc, assignmentSvc, validator.New()),
		Session:  sessionHandler.NewHandler(),
		Branches: branchHandler.NewHandler(branchSvc),
		Health:   health.NewHandler(st.pinger),
	}
	if cfg.Monitoring.PrometheusEnabled {
		handlers.Metrics = promHandler.New(registry, cfg.Monitoring.Namespace)
	}

	cors := middleware.DefaultCORSConfig()
	if len(cfg.Server.AllowedOrigins) > 0 {
		cors.AllowOrigins = cfg.Server.AllowedOrigins
	}

	r := router.NewRouter(authMiddleware, handlers, router.RouterConfig{
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst:        cfg.RateLimit.Burst,
		RequestTimeout:   cfg.Server.RequestTimeout,
		MaxBodyBytes:     cfg.Server.MaxBodyBytes,
		CORSConfig:       cors,
	})
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("server listening", "addr", srv.Addr, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	lg.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	lg.Info("server exited properly")
	return nil
}

// openPostgres is shared by the migrate subcommands, which never use the
// memory driver.
func openPostgres(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	if strings.EqualFold(cfg.Driver, "memory") {
		return nil, fmt.Errorf("migrations require the postgres driver")
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return postgres.NewDB(ctx, cfg)
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ozsure/quoting/internal/api"
	"github.com/ozsure/quoting/internal/audit"
	"github.com/ozsure/quoting/internal/config"
	mydb "github.com/ozsure/quoting/internal/db"
	"github.com/ozsure/quoting/internal/engine"
	"github.com/ozsure/quoting/internal/rating"
	"github.com/ozsure/quoting/internal/store"
	"github.com/ozsure/quoting/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()

	var (
		st   store.Store
		sink audit.Sink
	)
	switch cfg.StoreType {
	case "postgres":
		pool, err := mydb.NewPool(ctx, cfg.DatabaseDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("db pool")
		}
		if err := pool.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("db unreachable")
		}
		pg := store.NewPostgresStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("db migrate")
		}
		st = pg
		sink = audit.NewPostgresSink(pool)
	default:
		st = store.NewMemoryStore()
		sink = audit.NewMemorySink()
		log.Warn().Msg("using in-memory store, rules and audit logs will not survive restarts")
	}
	defer st.Close()

	auditSvc := audit.NewService(sink, nil, cfg.AuditQueueSize, log)
	defer auditSvc.Close()

	executor := engine.NewExecutor(st, auditSvc, log)
	calculator := rating.NewCalculator(st, executor, log)

	telemetry.Init()

	srvAPI := api.NewServer(st, executor, calculator, api.Options{
		AdminAPIKey:     cfg.AdminAPIKey,
		RateLimitPerIP:  cfg.RateLimitPerIP,
		RateLimitPerKey: cfg.RateLimitPerKey,
	}, log)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srvAPI.Router(),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	metricsSrv := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: promhttp.Handler(),
	}
	go func() {
		log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listening")
		if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server")
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctxShut, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShut)
	_ = metricsSrv.Shutdown(ctxShut)
	log.Info().Msg("stopped")
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	jwttoken "classreg/internal/jwt_token"
	"classreg/internal/platform/config"
	"classreg/internal/platform/httpserver"
	"classreg/internal/platform/logger"
	httpmetrics "classreg/internal/platform/metrics"
	ratelimitmw "classreg/internal/ratelimit/middleware"
	"classreg/internal/ratelimit/store/bucket"
	"classreg/internal/registry/handler"
	registrymetrics "classreg/internal/registry/metrics"
	"classreg/internal/registry/service"
	authmw "classreg/pkg/platform/middleware/auth"
	"classreg/pkg/platform/middleware/metadata"
	"classreg/pkg/platform/middleware/request"
	"classreg/pkg/platform/middleware/requesttime"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn("shutdown cleanup failed", "error", err)
			}
		}
	}()

	st, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	closers = append(closers, closeStore)

	regMetrics := registrymetrics.New(prometheus.DefaultRegisterer)
	notifier, closeNotifier, err := buildNotifier(ctx, cfg, log, regMetrics)
	if err != nil {
		return err
	}
	closers = append(closers, closeNotifier)

	svc, err := service.Open(ctx, cfg.Registry.Owner, st,
		service.WithLogger(log),
		service.WithNotifier(notifier),
		service.WithMetrics(regMetrics),
	)
	if err != nil {
		return err
	}

	router := newRouter(cfg, log, svc)
	srv := httpserver.New(cfg.Server.Addr, router)

	log.Info("starting classreg",
		"addr", cfg.Server.Addr,
		"backend", cfg.Registry.Backend,
		"owner", svc.Owner().String(),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Serve(gctx, srv, cfg.Server.ShutdownTimeout)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("classreg stopped")
	return nil
}

func newRouter(cfg config.Config, log *slog.Logger, svc *service.Service) chi.Router {
	httpMetrics := httpmetrics.New(prometheus.DefaultRegisterer)

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata(cfg.Server.TrustedProxies))
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(log, httpMetrics, metadata.ParseUserAgent))
	r.Use(request.Recoverer(log))

	tokens := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
	limiter := ratelimitmw.New(
		bucket.NewInMemoryBucketStore(),
		cfg.RateLimit.ReadsPerWindow,
		cfg.RateLimit.Window,
		log,
		ratelimitmw.WithMetrics(httpMetrics),
	)

	handler.New(svc, log,
		handler.WithAuth(authmw.RequireAuth(jwttoken.NewJWTServiceAdapter(tokens), log)),
		handler.WithReadLimit(limiter.RateLimit),
	).Register(r)

	r.Handle("/metrics", promhttp.Handler())
	return r
}

package main

import (
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/marketgrid/gatekeeper/pkg/audit"
	"github.com/marketgrid/gatekeeper/pkg/auth"
	"github.com/marketgrid/gatekeeper/pkg/config"
	gatehttp "github.com/marketgrid/gatekeeper/pkg/httputil"
	"github.com/marketgrid/gatekeeper/pkg/middleware"
	"github.com/marketgrid/gatekeeper/pkg/observability"
	"github.com/marketgrid/gatekeeper/pkg/policy"
)

func main() {
	startupLog := logrus.New()
	startupLog.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.LoadConfig()
	if err != nil {
		startupLog.WithError(err).Fatal("Failed to load configuration")
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}

	// Authorization pipeline: resolver -> engine -> recorder, wired into
	// the gate middleware.
	resolver := auth.NewResolver(cfg.Identity.BackendURL, cfg.Identity.CookieName, cfg.Identity.FetchTimeout, logger, metrics)
	engine := policy.NewEngine(policy.Mode(cfg.Policy.Mode), policy.DefaultPaths(), auth.NewHierarchy())

	var recorder audit.Recorder = audit.NopRecorder{}
	var httpRecorder *audit.HTTPRecorder
	if cfg.Audit.Enabled {
		httpRecorder = audit.NewHTTPRecorder(cfg.Identity.BackendURL, cfg.Audit.InternalKey, cfg.Audit.DeliveryTimeout, logger, metrics)
		recorder = httpRecorder
	}

	gate := middleware.NewGate(resolver, engine, recorder, logger, metrics, cfg.Policy.BypassPrefixes)

	// The gateway fronts the platform backend; everything the gate allows
	// (and everything on the bypass list) is proxied upstream.
	backendURL, err := url.Parse(cfg.Identity.BackendURL)
	if err != nil {
		startupLog.WithError(err).Fatal("Failed to parse backend URL")
	}
	upstream := httputil.NewSingleHostReverseProxy(backendURL)

	router := mux.NewRouter()
	router.PathPrefix("/").Handler(upstream)

	handler := gatehttp.Chain(
		gatehttp.RequestIDMiddleware,
		gatehttp.LoggingMiddleware(logger, metrics),
		gatehttp.RecoveryMiddleware(logger),
		gate.Handler,
	)(router)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Health and metrics on a separate port for k8s probes
	healthMux := http.NewServeMux()
	checker := observability.NewHealthChecker(cfg.Identity.BackendURL, cfg.Identity.FetchTimeout)
	observability.RegisterHealthRoutes(healthMux, checker)
	if metrics != nil {
		healthMux.Handle("/metrics", metrics.Handler())
	}
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux,
	}

	var group errgroup.Group
	group.Go(func() error {
		startupLog.WithField("addr", server.Addr).
			WithField("policy_mode", cfg.Policy.Mode).
			Info("Starting gatekeeper")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		startupLog.WithField("addr", healthServer.Addr).Info("Starting health server")
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout, server, healthServer)
	if httpRecorder != nil {
		shutdown.RegisterShutdownFunc(httpRecorder.Drain)
	}

	if err := shutdown.WaitForShutdown(); err != nil {
		startupLog.WithError(err).Error("Shutdown error")
	}
	if err := group.Wait(); err != nil {
		startupLog.WithError(err).Fatal("Server error")
	}
}

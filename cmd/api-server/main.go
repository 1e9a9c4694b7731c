package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/gin-gonic/gin"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sre-norns/envprobe/pkg/envdetect"
	"github.com/sre-norns/envprobe/pkg/grace"
	"github.com/sre-norns/envprobe/pkg/httpapi"
	"github.com/sre-norns/envprobe/pkg/orglookup"
)

type ServerConfig struct {
	Probe orglookup.Config `embed:"" prefix:"probe."`

	Listen          string        `help:"Address to listen on" default:":8080" env:"ENVPROBE_LISTEN"`
	Rules           string        `help:"Rules manifest file. Built-in rules are used if not set" type:"existingfile" env:"ENVPROBE_RULES"`
	AuthSecret      string        `help:"HMAC secret of bearer tokens. Authentication is disabled if not set" env:"ENVPROBE_AUTH_SECRET"`
	LogLevel        string        `enum:"debug,info,warn,error" help:"Minimal level of log messages" default:"info" env:"ENVPROBE_LOG_LEVEL"`
	ShutdownTimeout time.Duration `help:"Time to wait for in-flight requests on shutdown" default:"10s"`
}

func newRouter(cfg ServerConfig, logger log.Logger) (*gin.Engine, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	metrics, err := envdetect.NewMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	rules, err := envdetect.LoadRules(cfg.Rules)
	if err != nil {
		return nil, err
	}

	options := []envdetect.Option{
		envdetect.WithLogger(logger),
		envdetect.WithMetrics(metrics),
	}
	if !cfg.Probe.Disabled {
		options = append(options, envdetect.WithLookup(orglookup.NewProber(cfg.Probe, orglookup.WithLogger(logger))))
	}

	classifier, err := envdetect.New(rules, options...)
	if err != nil {
		return nil, err
	}

	return httpapi.ApiRoutes(httpapi.Config{
		Classifier: classifier,
		Gatherer:   registry,
		Logger:     logger,
		AuthSecret: []byte(cfg.AuthSecret),
	}), nil
}

func serve(ctx context.Context, cfg ServerConfig, logger log.Logger) error {
	router, err := newRouter(cfg, logger)
	if err != nil {
		return err
	}

	if cfg.AuthSecret == "" {
		level.Warn(logger).Log("msg", "bearer authentication is disabled")
	}

	server := &http.Server{
		Addr:              cfg.Listen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		level.Info(logger).Log("msg", "listening", "addr", cfg.Listen)
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	level.Info(logger).Log("msg", "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func main() {
	// A missing .env file is fine
	_ = godotenv.Load()

	var cfg ServerConfig
	kong.Parse(&cfg,
		kong.Name("api-server"),
		kong.Description("Deployment environment classification API server"),
	)

	gin.SetMode(gin.ReleaseMode)
	logger := grace.NewLogger(os.Stderr, cfg.LogLevel)

	grace.ExitOrLog(serve(grace.SetupSignalHandler(), cfg, logger))
}

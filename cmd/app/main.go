package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/netutil"

	"github.com/local/pagesel/internal/api"
	cfgpkg "github.com/local/pagesel/internal/config"
	"github.com/local/pagesel/internal/limiter"
	logpkg "github.com/local/pagesel/internal/logger"
	"github.com/local/pagesel/internal/metrics"
	"github.com/local/pagesel/internal/pdfdoc"
	"github.com/local/pagesel/internal/source"
	"github.com/local/pagesel/internal/specfile"
	"github.com/local/pagesel/internal/statuscheck"
	"github.com/local/pagesel/internal/store"
)

func main() {
	cfg, err := cfgpkg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	// Init logging
	_ = logpkg.Init(logpkg.Options{
		Level:        cfg.Logging.Level,
		Pretty:       cfg.Logging.Pretty,
		File:         cfg.Logging.File,
		MaxSizeMB:    cfg.Logging.MaxSizeMB,
		MaxBackups:   cfg.Logging.MaxBackups,
		MaxAgeDays:   cfg.Logging.MaxAgeDays,
		Compress:     cfg.Logging.Compress,
		SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
		AxiomAPIKey:  cfg.Axiom.APIKey,
		AxiomOrgID:   cfg.Axiom.OrgID,
		AxiomDataset: cfg.Axiom.Dataset,
		AxiomFlush:   cfg.Axiom.FlushInterval,
	})
	defer logpkg.Close()

	metrics.Init()

	src := source.New(source.Options{
		BaseDir:         cfg.Source.BaseDir,
		TempDir:         cfg.Source.TempDir,
		HTTPTimeout:     cfg.Source.HTTPTimeout,
		MaxBytes:        cfg.Source.MaxBytes,
		S3Region:        cfg.Source.S3Region,
		S3Endpoint:      cfg.Source.S3Endpoint,
		S3AccessKey:     cfg.Source.S3AccessKey,
		S3SecretKey:     cfg.Source.S3SecretKey,
		DecryptPassword: cfg.Source.DecryptPassword,
	})

	deps := api.Dependencies{
		Source: src,
		Open: api.OpenPDF(pdfdoc.Options{
			Backend:        cfg.Document.Backend,
			StripFurniture: cfg.Document.StripFurniture,
			OCR:            cfg.Document.OCR,
			OCRLanguage:    cfg.Document.OCRLanguage,
			RenderDPI:      cfg.Document.RenderDPI,
			RenderMaxWidth: cfg.Document.RenderMaxWidth,
		}),
		Specs: specfile.New(cfg.Selection.SpecDir),
		Slots: limiter.New(cfg.Document.MaxConcurrent),
	}

	health := statuscheck.Options{Backend: cfg.Document.Backend}

	// Page fact cache (optional)
	if cfg.Cache.RedisURL != "" {
		facts, err := store.NewFactStore(cfg.Cache.RedisURL, cfg.Cache.TTL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer facts.Close()
		deps.Cache = facts
		health.Redis = facts
		log.Info().Dur("ttl", cfg.Cache.TTL).Msg("page fact cache enabled")
	}

	deps.Health = statuscheck.New(health)

	srv := &http.Server{
		Handler:     api.NewServer(deps, cfg),
		ReadTimeout: cfg.Server.ReadTimeout,
	}

	ln, err := net.Listen("tcp", ":"+cfg.Server.Port)
	if err != nil {
		log.Fatal().Err(err).Str("port", cfg.Server.Port).Msg("listen failed")
	}
	if cfg.Server.MaxConns > 0 {
		ln = netutil.LimitListener(ln, cfg.Server.MaxConns)
	}

	go func() {
		log.Info().
			Str("port", cfg.Server.Port).
			Int("max_conns", cfg.Server.MaxConns).
			Str("backend", cfg.Document.Backend).
			Msg("HTTP server listening")
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("shutdown complete")
}

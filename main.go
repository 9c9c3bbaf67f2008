package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"sentinel-cctv/be/config"
	"sentinel-cctv/be/database"
	"sentinel-cctv/be/handlers"
	"sentinel-cctv/be/logger"
	"sentinel-cctv/be/notify"
	"sentinel-cctv/be/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	flags, err := config.ParseFlags(os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to parse flags: %v", err)
	}
	cfg, err := config.Load(flags.ConfigFile, flags)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(logger.Options{
		Dir:        cfg.Logging.Dir,
		Level:      cfg.Logging.Level,
		Production: cfg.Logging.Production,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	}); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()
	lg := logger.GetLogger()

	if err := run(cfg, lg); err != nil {
		lg.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, lg *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := database.NewStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer s.Close()

	hub := notify.NewHub(notify.WithCheckOrigin(originChecker(cfg.Security.CORSOrigins)))
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		_ = hub.Run(ctx)
	}()

	var mediamtx *services.MediaMTXService
	if cfg.MediaMTX.Enabled {
		mediamtx = services.NewMediaMTXService(cfg.MediaMTX)
	}

	router := handlers.NewRouter(handlers.Deps{
		Config:   cfg,
		Store:    s,
		Hub:      hub,
		MediaMTX: mediamtx,
		Probe:    services.NewProbeService(s, nil, cfg.Probe.Timeout),
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("database", cfg.Database.Type),
			zap.Bool("auth_enforced", cfg.JWT.Enforce),
			zap.Bool("mediamtx", cfg.MediaMTX.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		lg.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Warn("graceful shutdown failed", zap.Error(err))
	}
	stop()
	<-hubDone

	lg.Info("server stopped")
	return nil
}

// originChecker applies the CORS origin list to websocket upgrades. Requests
// without an Origin header, and any origin when the list is empty, pass.
func originChecker(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(origins) == 0 {
			return true
		}
		return slices.Contains(origins, origin)
	}
}

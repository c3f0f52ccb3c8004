package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"teewatch/internal/api"
	"teewatch/internal/config"
	"teewatch/internal/database"
	"teewatch/internal/links"
	"teewatch/internal/metrics"
	"teewatch/internal/notifier"
	"teewatch/internal/scraper"
	"teewatch/internal/service"
	"teewatch/internal/solar"
	"teewatch/internal/storage"
)

func main() {
	// Initialize logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("TEEWATCH_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	location, err := solar.NewLocation(cfg.Facility.Name, cfg.Facility.Latitude, cfg.Facility.Longitude, cfg.Facility.Timezone)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid facility location")
	}

	store, err := storage.NewStore(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer store.Close()

	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	}

	cooldown := notifier.NewCooldown(rdb, cfg.CooldownPeriod())
	mailer := notifier.NewEmailNotifier(notifier.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Address:  cfg.SMTP.Address,
		Password: cfg.SMTP.Password,
		FromName: cfg.SMTP.FromName,
	}, cooldown, &logger)

	sheet := scraper.New(scraper.Config{
		BaseURL:   cfg.Scraper.BaseURL,
		LoginPath: cfg.Scraper.LoginPath,
		SheetPath: cfg.Scraper.SheetPath,
		Username:  cfg.Scraper.Username,
		Password:  cfg.Scraper.Password,
		Timeout:   cfg.ScraperTimeout(),
	}, &logger)

	pipeline := service.New(service.Config{
		Interval:         cfg.ScrapeInterval(),
		MaxConcurrent:    cfg.Pipeline.MaxConcurrent,
		RunRetention:     cfg.RunRetention(),
		ExcludedHolidays: cfg.Pipeline.ExcludedHolidays,
		OperatorEmail:    cfg.OperatorEmail,
	}, sheet, store, mailer, location, &logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	linkHandler := links.NewHandler(store, cfg.LinkExpiry())
	apiServer := api.NewHTTPServer(store, store, linkHandler, mailer, cfg.API.PublicBaseURL, &logger)
	go startAPIServer(ctx, cfg.API.Port, apiServer, &logger)
	go sweepExpiredLinks(ctx, linkHandler, &logger)

	backup := database.NewBackupService(store, database.BackupConfig{
		Enabled:       cfg.Backup.Enabled,
		Interval:      cfg.BackupInterval(),
		StoragePath:   cfg.Backup.Path,
		RetentionDays: cfg.Backup.RetentionDays,
	}, &logger)
	go backup.Start(ctx)

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, store, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	logger.Info().Str("facility", cfg.Facility.Name).Msg("teewatch started")
	pipeline.Start(ctx)

	<-ctx.Done()
	pipeline.Stop()
}

func sweepExpiredLinks(ctx context.Context, h *links.Handler, logger *zerolog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed, err := h.RemoveExpired(); err != nil {
				logger.Warn().Err(err).Msg("expired link sweep failed")
			} else if removed > 0 {
				logger.Debug().Int("removed", removed).Msg("swept expired links")
			}
		}
	}
}

func startAPIServer(ctx context.Context, port int, apiServer *api.HTTPServer, logger *zerolog.Logger) {
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: apiServer.Router()}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("api server error")
	}
}

func startHealthServer(ctx context.Context, port int, store *storage.Store, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if _, err := store.LatestRun(); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}

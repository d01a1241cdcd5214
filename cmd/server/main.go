// Command server runs the unarchiving record tracker HTTP API.
//
// @title                      Unarchiving Record Tracker API
// @version                    1.0
// @description                Tracks requests to retrieve archived documents from request to return.
// @BasePath                   /api/v1
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/unarchive-tracker/internal/config"
	httpapi "github.com/tbourn/unarchive-tracker/internal/http"
	"github.com/tbourn/unarchive-tracker/internal/observability"
	"github.com/tbourn/unarchive-tracker/internal/repo"
	"github.com/tbourn/unarchive-tracker/internal/services"
	"github.com/tbourn/unarchive-tracker/internal/sysutil"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ver := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)
	sysutil.ConfigureLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, ver)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.OpenDatabase(repo.Options{
		Driver:  cfg.DB.Driver,
		Path:    cfg.DB.Path,
		DSN:     cfg.DB.DSN,
		Tracing: cfg.OTEL.Enabled || cfg.DB.Tracing,
		Silent:  cfg.GinMode == gin.ReleaseMode,
	})
	if err != nil {
		return err
	}
	defer closeDB(db)
	if err := repo.AutoMigrate(db); err != nil {
		return err
	}

	svc := httpapi.NewRecordService(db, cfg)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, svc, cfg)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
		BaseContext:       func(net.Listener) context.Context { return log.Logger.WithContext(context.Background()) },
	}

	go sweepIdempotency(ctx, svc, cfg.IdempotencySweep)

	errc := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("version", ver).
			Str("db_driver", cfg.DB.Driver).
			Int("deadline_days", cfg.Records.DeadlineDays).
			Msg("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}

// sweepIdempotency purges expired idempotency keys every interval until ctx
// is cancelled.
func sweepIdempotency(ctx context.Context, svc *services.RecordService, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	lg := log.With().Str("job", "idempotency_sweep").Logger()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := svc.PurgeExpiredKeys(lg.WithContext(ctx))
			if err != nil {
				lg.Warn().Err(err).Msg("purge failed")
				continue
			}
			lg.Debug().Int64("removed", n).Msg("purge done")
		}
	}
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"github.com/iliyamo/eco-adventures-backend/internal/config"
	"github.com/iliyamo/eco-adventures-backend/internal/database"
	"github.com/iliyamo/eco-adventures-backend/internal/handler"
	"github.com/iliyamo/eco-adventures-backend/internal/middleware"
	"github.com/iliyamo/eco-adventures-backend/internal/queue"
	"github.com/iliyamo/eco-adventures-backend/internal/repository"
	"github.com/iliyamo/eco-adventures-backend/internal/router"
	"github.com/iliyamo/eco-adventures-backend/internal/service"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API (default)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	logger := newLogger(cfg)

	if cfg.DBDriver == database.DriverMySQL && cfg.AutoMigrate {
		if err := runMigrations(cfg, database.Up); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	db, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	dialect := repository.MySQL
	if cfg.DBDriver == database.DriverSQLite {
		dialect = repository.SQLite
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warnj(log.JSON{"msg": "redis unavailable: rate limit disabled, cache kept in process"})
	} else {
		defer rdb.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var events service.EventPublisher
	var wg sync.WaitGroup
	if cfg.EventsEnabled {
		events = queue.NewPublisher(cfg.RabbitURL, cfg.EventsQueue, logger)
		consumer := queue.NewConsumer(cfg.RabbitURL, cfg.EventsQueue, cfg.EventLogDir, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorj(log.JSON{"msg": "event consumer stopped", "error": err.Error()})
			}
		}()
	}

	courses := repository.NewCourseRepo(db, dialect)
	registrations := repository.NewRegistrationRepo(db, dialect)
	instructors := repository.NewInstructorRepo(db)
	ledger := service.NewCapacityLedger(courses, logger)
	regSvc := service.NewRegistrationService(courses, registrations, ledger, events, logger)

	e := newEcho(cfg, logger)
	router.RegisterRoutes(e)
	router.RegisterAPI(e, router.Handlers{
		Courses:       handler.NewCourseHandler(courses, instructors, ledger),
		Registrations: handler.NewRegistrationHandler(regSvc),
		Instructors:   handler.NewInstructorHandler(instructors),
		Activities:    handler.NewActivityHandler(repository.NewActivityRepo(db)),
		FAQs:          handler.NewFAQHandler(repository.NewFAQRepo(db)),
	},
		middleware.NewResponseCache(config.LoadCacheConfig(), rdb),
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
	)

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		logger.Infoj(log.JSON{"msg": "listening", "addr": addr, "env": cfg.Env, "db": cfg.DBDriver})
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			stop()
			wg.Wait()
			return fmt.Errorf("server: %w", err)
		}
	}

	logger.Infoj(log.JSON{"msg": "shutting down"})
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorj(log.JSON{"msg": "graceful shutdown failed", "error": err.Error()})
	}
	stop()
	wg.Wait()
	logger.Infoj(log.JSON{"msg": "server stopped"})
	return nil
}

func newEcho(cfg config.Config, logger *log.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger = logger
	e.Validator = handler.NewValidator()

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		AllowCredentials: true,
	}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			entry := log.JSON{
				"msg":        "request",
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency_ms": v.Latency.Milliseconds(),
				"request_id": v.RequestID,
				"remote_ip":  v.RemoteIP,
			}
			if v.Error != nil {
				entry["error"] = v.Error.Error()
				logger.Errorj(entry)
				return nil
			}
			logger.Infoj(entry)
			return nil
		},
	}))
	return e
}

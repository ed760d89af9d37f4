// Package main runs the live poll server: HTTP API, WebSocket session and
// graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aura-classroom/livepoll/config"
	"github.com/aura-classroom/livepoll/internal/health"
	"github.com/aura-classroom/livepoll/internal/history"
	"github.com/aura-classroom/livepoll/internal/lifecycle"
	"github.com/aura-classroom/livepoll/internal/middleware"
	"github.com/aura-classroom/livepoll/internal/polls"
	"github.com/aura-classroom/livepoll/internal/realtime"
	"github.com/aura-classroom/livepoll/internal/session"
	"github.com/aura-classroom/livepoll/pkg/database"
	"github.com/aura-classroom/livepoll/pkg/redis"
	"github.com/aura-classroom/livepoll/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	checks := health.NewHandler()
	var stores []history.Store

	if cfg.Database.Enabled() {
		pool, err := database.NewPostgresPool(ctx, cfg.Database.URL, logger)
		if err != nil {
			logger.Fatal("database", zap.Error(err))
		}
		defer pool.Close()

		if err := database.Migrate(ctx, pool); err != nil {
			logger.Fatal("migrate", zap.Error(err))
		}
		stores = append(stores, history.NewPostgresStore(pool))
		checks.Add("postgres", pool.Ping)
	}

	var feed realtime.EventPublisher
	if cfg.Redis.Enabled() {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()

		stores = append(stores, history.NewRedisStore(rdb.Client, cfg.Redis.HistoryKey))
		feed = realtime.NewRedisFeed(rdb.Client, cfg.Redis.EventsChannel, logger)
		checks.Add("redis", rdb.Check)
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()
	var bg sync.WaitGroup

	var recorder history.Recorder
	if len(stores) > 0 {
		archiver := history.NewArchiver(logger, history.ArchiverOptions{
			Buffer:     cfg.Archive.Buffer,
			MaxRetries: cfg.Archive.MaxRetries,
			Backoff:    time.Duration(cfg.Archive.BackoffSec) * time.Second,
		}, stores...)
		recorder = archiver
		bg.Add(1)
		go func() {
			defer bg.Done()
			archiver.Run(bgCtx)
		}()
	}

	hub := realtime.NewHub(logger, feed)
	bg.Add(1)
	go func() {
		defer bg.Done()
		hub.Run(bgCtx)
	}()

	limits := lifecycle.DefaultLimits()
	limits.MinOptions = cfg.Poll.MinOptions
	limits.MaxOptions = cfg.Poll.MaxOptions
	limits.MinTimer = cfg.Poll.MinTimer
	limits.MaxTimer = cfg.Poll.MaxTimer
	limits.DefaultTimer = cfg.Poll.DefaultTimer

	coord := session.New(session.Options{
		Clock:      clock.New(),
		Limits:     limits,
		History:    history.NewLog(recorder),
		Dispatcher: hub,
		Logger:     logger,
	})

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	router.Use(middleware.Logger(logger, "/health", "/ready"))

	checks.Register(router)
	polls.NewHandler(coord).Register(router)
	router.GET("/ws", realtime.ServeWs(hub, coord, realtime.NewUpgrader(cfg.Server.AllowedOrigins), logger))
	router.NoRoute(func(c *gin.Context) { response.NotFound(c, "route not found") })

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	coord.Shutdown()

	// Let the archiver drain what the session already handed it.
	bgCancel()
	bg.Wait()
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}

// Package main follows the live poll event feed on Redis and logs every
// broadcast the server publishes. It is meant for projector displays and
// debugging a running class.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aura-classroom/livepoll/config"
	"github.com/aura-classroom/livepoll/internal/realtime"
	"github.com/aura-classroom/livepoll/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if !cfg.Redis.Enabled() {
		logger.Fatal("REDIS_ADDR is required to follow the event feed")
	}

	ctx := context.Background()
	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	feed := realtime.NewRedisFeed(rdb.Client, cfg.Redis.EventsChannel, logger)
	stop, err := feed.Subscribe(ctx, func(ev realtime.FeedEvent) {
		logger.Info("event",
			zap.String("event", ev.Event),
			zap.Time("at", time.Unix(ev.At, 0)),
			zap.ByteString("data", ev.Data),
		)
	})
	if err != nil {
		logger.Fatal("subscribe", zap.Error(err))
	}
	logger.Info("following event feed", zap.String("channel", cfg.Redis.EventsChannel))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stop()
	logger.Info("feed watcher stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}

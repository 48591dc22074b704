// Command karma recomputes every profile's rolling karma once and exits.
// It is meant to be run from cron when the API's built-in schedule is not used.
package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/emilythestrangee/agora/backend/internal/config"
	"github.com/emilythestrangee/agora/backend/internal/database"
	"github.com/emilythestrangee/agora/backend/internal/lock"
	"github.com/emilythestrangee/agora/backend/internal/logger"
	"github.com/emilythestrangee/agora/backend/internal/services"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	db, err := database.New(cfg.DSN())
	if err != nil {
		logger.Log.WithError(err).Fatal("database connection failed")
	}
	defer db.Close()

	var locker lock.Locker
	if strings.TrimSpace(cfg.RedisURL) != "" {
		redisLocker, err := lock.NewRedisLocker(cfg.RedisURL)
		if err != nil {
			logger.Log.WithError(err).Fatal("redis connection failed")
		}
		defer redisLocker.Close()
		locker = redisLocker
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	updated, err := services.NewKarmaService(db.GetDB(), locker, cfg.KarmaWindow).Run(ctx, time.Now().UTC())
	if err != nil {
		logger.Log.WithError(err).Error("karma run failed")
		db.Close()
		os.Exit(1)
	}
	logger.Log.WithField("profiles", updated).Info("karma run finished")
}

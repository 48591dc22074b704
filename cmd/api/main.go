package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/emilythestrangee/agora/backend/internal/auth"
	"github.com/emilythestrangee/agora/backend/internal/config"
	"github.com/emilythestrangee/agora/backend/internal/database"
	"github.com/emilythestrangee/agora/backend/internal/handlers"
	"github.com/emilythestrangee/agora/backend/internal/lock"
	"github.com/emilythestrangee/agora/backend/internal/logger"
	"github.com/emilythestrangee/agora/backend/internal/models"
	"github.com/emilythestrangee/agora/backend/internal/notify"
	"github.com/emilythestrangee/agora/backend/internal/server"
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
	gormDB := db.GetDB()

	var locker lock.Locker = lock.NewLocalLocker()
	if strings.TrimSpace(cfg.RedisURL) != "" {
		logger.Log.Info("Using Redis for the karma run lock")
		redisLocker, err := lock.NewRedisLocker(cfg.RedisURL)
		if err != nil {
			logger.Log.WithError(err).Fatal("redis connection failed")
		}
		defer redisLocker.Close()
		locker = redisLocker
	}

	mailer := notify.NewMailer(notify.MailConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	})
	sms := notify.NewSMS(notify.SMSConfig{
		AccountSID: cfg.TwilioAccountSID,
		AuthToken:  cfg.TwilioAuthToken,
		From:       cfg.TwilioFrom,
	})
	senders := map[string]notify.Sender{}
	if mailer.IsConfigured() {
		senders[models.ChannelEmail] = mailer
	} else {
		logger.Log.Warn("SMTP is not configured, emails stay queued in the outbox")
	}
	if sms.IsConfigured() {
		senders[models.ChannelSMS] = sms
	}
	outbox := notify.NewOutbox(sms.IsConfigured())

	tokens := auth.NewTokens(cfg.JWTSecret)
	tracker := services.NewActivityTracker(gormDB)
	karma := services.NewKarmaService(gormDB, locker, cfg.KarmaWindow)

	svc := handlers.Services{
		Users:       services.NewUserService(gormDB, outbox, cfg.BaseURL),
		Content:     services.NewContentService(gormDB),
		Votes:       services.NewVoteService(gormDB),
		Communities: services.NewCommunityService(gormDB, cfg.OnlineLimit),
		Awards:      services.NewAwardService(gormDB),
		Moderation:  services.NewModerationService(gormDB, outbox, cfg.LimitWarnings),
		Saved:       services.NewSavedService(gormDB),
	}
	handler := handlers.NewHandler(svc, tokens, handlers.Options{
		PageSize:    cfg.PageSize,
		OnlineLimit: cfg.OnlineLimit,
	})
	httpServer := server.New(db, handler, tokens, tracker, cfg.SessionSecret).HTTPServer(cfg.Port)

	// Background workers stop when ctx is cancelled
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	run := func(name string, fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
			logger.Log.WithField("worker", name).Info("worker stopped")
		}()
	}

	dispatcher := notify.NewDispatcher(gormDB, senders, cfg.OutboxPollInterval, notify.WithMaxAttempts(cfg.OutboxMaxAttempts))
	run("outbox", func() { dispatcher.Run(ctx) })
	run("outbox-listener", func() {
		if err := notify.Listen(ctx, cfg.DSN(), dispatcher); err != nil {
			logger.Log.WithError(err).Warn("outbox listener disabled, falling back to polling")
		}
	})
	run("activity", func() { tracker.Run(ctx, cfg.ActivityFlushInterval) })
	run("karma", func() { karma.Schedule(ctx, cfg.KarmaRunHour) })

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("shutdown error")
	}

	cancel()
	wg.Wait()
}

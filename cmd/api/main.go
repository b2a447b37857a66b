package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"research-assessment/internal/assessment"
	"research-assessment/internal/config"
	"research-assessment/internal/db"
	httpSrv "research-assessment/internal/http"
	"research-assessment/internal/migrations"
	"research-assessment/internal/session"
	"research-assessment/internal/storage"
	"research-assessment/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal(err)
	}
	log := cfg.Logger()

	// Run embedded migrations (idempotent)
	if err := migrations.Run(cfg.DatabaseURL); err != nil {
		log.WithError(err).Fatal("migrate")
	}

	// Start services
	dbase := db.MustOpen(cfg.DatabaseURL)
	repo := db.NewRepo(dbase)
	asq := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer asq.Close()

	var store session.Store
	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		store = session.NewRedisStore(rdb, cfg.SessionTTL)
	default:
		store = session.NewMemoryStore(cfg.SessionTTL)
	}

	// Archive reads are optional; the wizard API works without object storage.
	var archive httpSrv.ArchiveReader
	if s3c, err := storage.New(context.Background(), cfg.MinIO, log); err != nil {
		log.WithError(err).Warn("storage unavailable, archive reads disabled")
	} else {
		archive = s3c
	}

	svc := assessment.NewService(store, repo, repo, &worker.Enqueuer{Client: asq}, log)
	srv := httpSrv.NewServer(cfg, svc, repo, archive, dbase, log)

	go func() {
		log.WithFields(logrus.Fields{"addr": srv.Addr, "session_store": cfg.SessionStore}).Info("api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("serve")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown")
	}
}

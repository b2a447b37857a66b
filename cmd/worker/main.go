package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"research-assessment/internal/config"
	"research-assessment/internal/db"
	"research-assessment/internal/storage"
	"research-assessment/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal(err)
	}
	log := cfg.Logger()

	// Start services
	dbase := db.MustOpen(cfg.DatabaseURL)
	s3c, err := storage.New(context.Background(), cfg.MinIO, log)
	if err != nil {
		log.WithError(err).Fatal("storage")
	}
	log.WithFields(logrus.Fields{"redis": cfg.RedisAddr, "concurrency": cfg.WorkerConcurrency}).Info("worker starting")
	if err := worker.Run(cfg, db.NewRepo(dbase), s3c, log); err != nil {
		log.WithError(err).Fatal("worker")
	}
}

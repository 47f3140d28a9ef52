package main

import (
	"context"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/safar/cafe-pos/internal/config"
	"github.com/safar/cafe-pos/internal/database"
	"github.com/safar/cafe-pos/internal/logger"
	"github.com/safar/cafe-pos/migrations"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate [up|down] [prefix...]")
	}
	direction := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	logg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Create logger: %v", err)
	}
	defer logg.Sync()

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		logg.Fatal("connect to database", zap.Error(err))
	}
	defer db.Close()

	applied, err := migrations.Apply(context.Background(), db, direction, os.Args[2:]...)
	for _, name := range applied {
		logg.Info("ran migration", zap.String("file", name))
	}
	if err != nil {
		logg.Fatal("migrate failed", zap.String("direction", direction), zap.Error(err))
	}

	logg.Info("migrations complete", zap.Int("count", len(applied)), zap.String("direction", direction))
}

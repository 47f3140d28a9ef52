package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/safar/cafe-pos/internal/api"
	"github.com/safar/cafe-pos/internal/catalog"
	"github.com/safar/cafe-pos/internal/config"
	"github.com/safar/cafe-pos/internal/database"
	"github.com/safar/cafe-pos/internal/logger"
	"github.com/safar/cafe-pos/internal/report"
	"github.com/safar/cafe-pos/internal/sales"
)

func main() {
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

	logg.Info("connected to database")

	catalogSvc := catalog.NewService(catalog.NewRepository(db), logg, cfg.Store.LowStockThreshold)
	salesSvc := sales.NewService(sales.NewRepository(db), logg)
	reportSvc := report.NewService(report.NewRepository(db), cfg.Store.Location, logg)

	gin.SetMode(cfg.Server.GinMode)
	router := api.NewRouter(api.Services{
		Catalog: catalogSvc,
		Sales:   salesSvc,
		Stock:   salesSvc.Validator(),
		Reports: reportSvc,
		DB:      db,
	}, logg)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logg.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("timezone", cfg.Store.Timezone),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logg.Error("server forced to shutdown", zap.Error(err))
	}

	logg.Info("server stopped")
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/YKarmar/ApplicationTracker/internal/api"
	"github.com/YKarmar/ApplicationTracker/internal/config"
	"github.com/YKarmar/ApplicationTracker/internal/logger"
	"github.com/YKarmar/ApplicationTracker/internal/store"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath, ".env", "security.env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.ValidateServer(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting application tracker API",
		zap.String("addr", cfg.Server.Addr),
		zap.String("db_driver", cfg.Database.Driver),
	)

	st, err := store.Open(store.Options{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	}, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := st.Migrate(ctx); err != nil {
		cancel()
		log.Fatal("failed to migrate database", zap.Error(err))
	}
	// 迁移完成后只执行一次默认数据写入
	if _, err := st.Seed(ctx); err != nil {
		cancel()
		log.Fatal("failed to seed database", zap.Error(err))
	}
	cancel()

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewServer(st, log).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err, ok := <-errCh:
		if ok {
			log.Error("http server stopped with error", zap.Error(err))
		}
	}

	log.Info("shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown http server", zap.Error(err))
	}

	log.Info("server stopped")
}

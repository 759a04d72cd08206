package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"pricerelay/config"
	"pricerelay/internal/relay"
	"pricerelay/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// viper config
	cfg := config.Load()

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	if cfg.Log.Environment != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r, err := relay.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to build relay", zap.Error(err))
	}
	if err := r.Start(ctx); err != nil {
		log.Fatal("failed to start relay", zap.Error(err))
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- r.Serve()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			log.Error("http server stopped", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Close(shutdownCtx); err != nil {
		log.Warn("shutdown finished with errors", zap.Error(err))
	}
}

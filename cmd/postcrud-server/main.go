package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/tendant/postcrud/pkg/postcrud/api"
	"github.com/tendant/postcrud/pkg/postcrud/config"
)

func main() {
	_ = godotenv.Load()

	serverConfig, err := config.Load(config.WithEnv("POSTCRUD_"))
	if err != nil {
		slog.Error("Failed to load server configuration", "err", err)
		os.Exit(1)
	}

	logger := serverConfig.NewLogger()
	slog.SetDefault(logger)

	if serverConfig.HostType == config.HostRemote {
		logger.Error("A server cannot proxy to another postcrud server; set POSTCRUD_HOST_URL to a storage backend")
		os.Exit(1)
	}

	ctx := context.Background()
	host, closeHost, err := serverConfig.BuildHost(ctx)
	if err != nil {
		logger.Error("Failed to build host", "host_type", serverConfig.HostType, "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := closeHost(); err != nil {
			logger.Error("Failed to close host", "err", err)
		}
	}()

	router := api.NewRouter(api.NewItemHandler(host, logger), api.RouterOptions{
		JWTSecret: serverConfig.JWTSecret,
		APIToken:  serverConfig.APIToken,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", serverConfig.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("postcrud server starting",
			"port", serverConfig.Port,
			"env", serverConfig.Environment,
			"host_type", serverConfig.HostType,
			"auth", serverConfig.JWTSecret != "" || serverConfig.APIToken != "",
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "err", err)
		return
	}

	logger.Info("Server exiting")
}

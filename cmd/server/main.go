// Command server runs the workflow engine's HTTP API: submit, await,
// cancel, and the dev-mode step-execution and inspector endpoints.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/flowcore/engine/internal/config"
	"github.com/flowcore/engine/internal/httpapi"
	"github.com/flowcore/engine/internal/logging"
	"github.com/flowcore/engine/pkg/engineapi"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	appLogger := logging.Setup(cfg.Logging.Level)
	appLogger.Info("starting workflow engine server", "port", cfg.Server.Port, "devMode", cfg.Engine.DevMode)

	manager := engineapi.NewManager(cfg.Engine, engineapi.NewRegistry(cfg.Engine))
	server := httpapi.NewServer(manager, appLogger)

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(httpapi.Recovery(appLogger))
	router.Use(httpapi.RequestLogger(appLogger))
	if cfg.Server.CORS {
		router.Use(httpapi.CORS())
		appLogger.Info("CORS enabled")
	}

	server.Routes(router)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		appLogger.Info("http server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)
		serverErrors <- httpServer.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		appLogger.Error("server error", "error", err)
		os.Exit(1)

	case sig := <-shutdown:
		appLogger.Info("server shutdown initiated", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(ctx); err != nil {
			appLogger.Error("graceful shutdown failed", "error", err)
			if err := httpServer.Close(); err != nil {
				appLogger.Error("server close failed", "error", err)
			}
		}

		appLogger.Info("server stopped")
	}
}

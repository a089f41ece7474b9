package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"messagely/internal/common"
	"messagely/internal/config"
	"messagely/internal/wire"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.LoadConfig()
	common.SetupLogger(cfg)

	logrus.Info("Initializing application...")
	app, cleanup, err := wire.InitializeApplication(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize application")
	}
	defer cleanup()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	server := &http.Server{
		Addr:           app.Config.Addr(),
		Handler:        app.Router,
		ReadTimeout:    time.Duration(app.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(app.Config.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logrus.WithFields(logrus.Fields{
			"addr": server.Addr,
			"env":  app.Config.Server.Environment,
		}).Info("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("HTTP server failed")
		}
	}()

	if port := app.Config.Server.GRPCHealthPort; port != "" {
		lis, err := net.Listen("tcp", ":"+port)
		if err != nil {
			logrus.WithError(err).WithField("port", port).Fatal("Failed to listen for gRPC health")
		}
		go func() {
			if err := app.Health.Serve(ctx, lis); err != nil {
				logrus.WithError(err).Error("gRPC health server stopped")
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if app.Config.Server.GRPCHealthPort != "" {
		app.Health.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("Server forced to shutdown")
	}

	logrus.Info("Server gracefully stopped")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dias221467/teachmate/internal/config"
	"github.com/Dias221467/teachmate/internal/devserver"
	"github.com/Dias221467/teachmate/internal/handlers"
	"github.com/Dias221467/teachmate/pkg/email"
	"github.com/Dias221467/teachmate/pkg/logger"
)

func main() {
	// Load configuration from .env file
	cfg := config.LoadConfig()

	logger.InitLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Log.Info("Logger initialized")

	port := cfg.Port
	backend := devserver.NewBackend(fmt.Sprintf("http://localhost:%s/api/files", port), logger.Component("devserver"))
	hub := handlers.NewHub()

	mailer := email.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPSender, cfg.SMTPPassword)
	if !mailer.Enabled() {
		logger.Log.Info("SMTP not configured, reports are kept in memory only")
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handlers.NewRouter(cfg, backend, hub, mailer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Log.WithError(err).Error("Graceful shutdown failed")
		}
	}()

	fmt.Printf("Server running on port %s\n", port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	logger.Log.Info("Server stopped")
}

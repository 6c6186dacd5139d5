// Command server runs the Damareen card-game backend.
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

	"github.com/deakteri/damareen/internal/api"
	"github.com/deakteri/damareen/internal/config"
	"github.com/deakteri/damareen/internal/mail"
	"github.com/deakteri/damareen/internal/store"
)

func main() {
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config_error err=%v", err)
	}

	db, err := store.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		logger.Fatalf("store_open_error path=%s err=%v", cfg.DBPath, err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		logger.Fatalf("migration_error err=%v", err)
	}

	var mailer mail.Mailer = &mail.LogMailer{Logger: logger}
	if cfg.SMTPHost != "" {
		mailer = &mail.SMTPMailer{
			Host:        cfg.SMTPHost,
			Port:        cfg.SMTPPort,
			Username:    cfg.SMTPUsername,
			Password:    cfg.SMTPPassword,
			SenderEmail: cfg.SenderEmail,
			SenderName:  cfg.SenderName,
			FrontendURL: cfg.FrontendURL,
		}
	}

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      api.NewServer(db, cfg, mailer).Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 65 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Printf("server_listening addr=%s db=%s", cfg.Addr, cfg.DBPath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server_error err=%v", err)
		}
	}()

	<-ctx.Done()
	logger.Printf("server_shutdown_started")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("server_shutdown_error err=%v", err)
	}
	logger.Printf("server_shutdown_complete")
}

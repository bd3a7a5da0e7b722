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

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/ulule/limiter/v3"

	"tv-finder/internal/handler"
	"tv-finder/internal/notify"
	"tv-finder/internal/repository"
	"tv-finder/internal/service"
	"tv-finder/internal/session"
	"tv-finder/internal/ui"
)

const (
	pruneInterval   = time.Hour
	shutdownTimeout = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	gin.SetMode(cfg.GinMode)

	// Initialize diagnostics database
	db, err := repository.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.InitSchema(); err != nil {
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	// Operator alerts are optional
	var alerter service.Alerter
	if cfg.TelegramEnabled() {
		tg, err := notify.NewTelegramAlerter(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			log.Printf("Warning: Telegram alerts disabled: %v", err)
		} else {
			alerter = tg
		}
	}

	diag := service.NewDiagnostics(repository.NewDiagnosticsRepository(db), alerter)

	pruner := service.NewPruner(diag, cfg.DiagnosticsRetention.Duration, pruneInterval)
	pruner.Start()
	defer pruner.Stop()

	client := newProviderClient()
	sessions := session.NewStore(cfg.SessionTTL.Duration, func() *ui.Router {
		return ui.NewRouter(client, diag)
	})

	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		return fmt.Errorf("invalid rate limit: %w", err)
	}

	h := handler.NewHTTPHandler(client, diag, sessions, cfg.APIToken, rate)
	engine, err := handler.NewEngine(h)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("tv-finder listening on %s (provider %s)", cfg.ListenAddr, cfg.ProviderBaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

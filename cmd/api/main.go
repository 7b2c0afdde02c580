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

	"github.com/MrJamesThe3rd/settle/internal/charge"
	chargeStore "github.com/MrJamesThe3rd/settle/internal/charge/store"
	"github.com/MrJamesThe3rd/settle/internal/config"
	"github.com/MrJamesThe3rd/settle/internal/database"
	settleHttp "github.com/MrJamesThe3rd/settle/internal/http"
	chargeHandler "github.com/MrJamesThe3rd/settle/internal/http/charge"
	paymentHandler "github.com/MrJamesThe3rd/settle/internal/http/payment"
	"github.com/MrJamesThe3rd/settle/internal/metrics"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Server.Timeout)
	db, err := database.New(connectCtx, cfg.ConnectionString(), database.Pool{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	cancel()

	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	store := chargeStore.New(db)
	if err := store.Migrate(ctx); err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	metrics.Init()

	chargeService := charge.NewService(store)

	var (
		chargesH  = chargeHandler.NewHandler(chargeService)
		paymentsH = paymentHandler.NewHandler(chargeService)
	)

	if cfg.Auth.Secret == "" {
		slog.Warn("AUTH_SECRET is empty, the API is not authenticated")
	}

	router := settleHttp.New(settleHttp.Options{
		AuthSecret:     []byte(cfg.Auth.Secret),
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, chargesH, paymentsH)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shut down server", "error", err)
		}
	}()

	slog.Info("starting server", "app", cfg.App.Name, "port", srv.Addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alextreichler/storefront/internal/cart"
	"github.com/alextreichler/storefront/internal/config"
	"github.com/alextreichler/storefront/internal/handlers"
	"github.com/alextreichler/storefront/internal/metrics"
	"github.com/alextreichler/storefront/internal/shop"
	"github.com/alextreichler/storefront/internal/store"
	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Using TextHandler for console readability
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	// 2. Init DB
	db, err := store.NewStore(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		slog.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run Migrations
	if err := db.Migrate(); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if cfg.SeedCatalog {
		if err := db.SeedCatalog(ctx); err != nil {
			slog.Error("Failed to seed catalog", "error", err)
			os.Exit(1)
		}
	}

	carts := cart.NewStore()
	svc := shop.New(db, carts)

	if cfg.AdminUsername != "" {
		created, err := svc.Auth.ProvisionAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword)
		if err != nil {
			slog.Error("Failed to provision admin", "username", cfg.AdminUsername, "error", err)
			os.Exit(1)
		}
		slog.Info("Admin provisioned", "username", cfg.AdminUsername, "created", created)
	}
	if ok, err := svc.Auth.HasAdmin(ctx); err == nil && !ok {
		slog.Warn("No admin account exists. Set ADMIN_USERNAME/ADMIN_PASSWORD or run `cli create-admin`.")
	}

	// 3. Session Setup
	sessionStore := sessions.NewCookieStore(cfg.SessionKey)
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.Secure = cfg.CookieSecure
	sessionStore.Options.SameSite = http.SameSiteLaxMode
	sessionStore.Options.Path = "/"
	if cfg.CookieDomain != "" {
		sessionStore.Options.Domain = cfg.CookieDomain
	}

	// 4. Init Templates
	templates := handlers.NewTemplateCache()
	if err := templates.Load(); err != nil {
		slog.Error("Failed to load templates", "error", err)
		os.Exit(1)
	}

	// 5. Setup Handlers
	base := &handlers.Base{
		Shop:         svc,
		SessionStore: sessionStore,
		Templates:    templates,
	}
	mux := handlers.NewRouter(base, carts, handlers.RouterOptions{
		StaticDir: "./static",
		UploadDir: cfg.UploadDir,
	})

	// 6. Middleware Setup
	CSRF := csrf.Protect(
		cfg.CSRFKey,
		csrf.Secure(cfg.CookieSecure),
		// Trust local development origins
		csrf.TrustedOrigins([]string{"localhost:" + cfg.Port, "127.0.0.1:" + cfg.Port, "localhost", "127.0.0.1"}),
	)

	// Chain: Metrics -> Logger -> Security Headers -> CSRF -> Mux
	handler := metrics.InstrumentHandler(
		handlers.LoggingMiddleware(
			handlers.SecurityHeadersMiddleware(
				CSRF(mux),
			),
		),
	)

	// 7. Start Server with Graceful Shutdown
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("Server starting", "port", cfg.Port, "driver", cfg.DBDriver)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to listen and serve", "error", err)
			os.Exit(1)
		}
	}()

	// Block until a signal is received
	<-stop

	slog.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited gracefully.")
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}

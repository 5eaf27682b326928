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

	"github.com/google/uuid"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/groupdo/internal/auth"
	"github.com/mmynk/groupdo/internal/config"
	"github.com/mmynk/groupdo/internal/metrics"
	"github.com/mmynk/groupdo/internal/rpc"
	"github.com/mmynk/groupdo/internal/service"
	"github.com/mmynk/groupdo/internal/storage/sqlstore"
	"github.com/mmynk/groupdo/internal/web"
	"github.com/mmynk/groupdo/pkg/logging"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("Server exited", "error", err)
		os.Exit(1)
	}
}

// run starts the server and blocks until it is shut down. Startup failures
// are returned after deferred cleanup has run.
func run(args []string) error {
	cfg, err := config.Load(".env", args)
	if err != nil {
		logging.Setup()
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logging.Configure(os.Stderr, cfg.LogFormat, cfg.LogLevel)

	if cfg.SessionSecret == "" {
		cfg.SessionSecret = uuid.NewString()
		slog.Warn("SESSION_SECRET not set, using a random key; sessions end on restart")
	}

	store, err := sqlstore.New(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "driver", cfg.DBDriver)

	tokens := auth.NewJWTManager(cfg.SessionSecret, cfg.SessionTTL)
	sessions := auth.NewSessions(tokens, cfg.SecureCookies)
	authn := auth.NewPasswordAuthenticator(store, auth.WithAdminUsername(cfg.AdminUsername))
	admin := service.NewAdminService(store)

	srv, err := web.NewServer(web.Deps{
		Auth:     authn,
		Sessions: sessions,
		Store:    store,
		Todos:    service.NewTodoService(store),
		Groups:   service.NewGroupService(store),
		Admin:    admin,
	})
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics.Handler())

	rpcPath, rpcHandler := rpc.NewAdminServiceHandler(rpc.NewAdminService(admin), sessions, store)
	mux.Handle(rpcPath, rpcHandler)
	rpcPath, rpcHandler = rpc.NewAuthServiceHandler(rpc.NewAuthService(authn, tokens), sessions, store)
	mux.Handle(rpcPath, rpcHandler)

	// Wrap with h2c for HTTP/2 without TLS (required for Connect gRPC clients)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h2c.NewHandler(srv.Handler(mux), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}()

	slog.Info("Server starting", "address", cfg.Addr, "admin_username", cfg.AdminUsername, "dev", cfg.Dev)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	slog.Info("Server stopped")
	return nil
}

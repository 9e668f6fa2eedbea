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

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/splitty/internal/auth"
	"github.com/mmynk/splitty/internal/config"
	"github.com/mmynk/splitty/internal/middleware"
	"github.com/mmynk/splitty/internal/recognizer"
	"github.com/mmynk/splitty/internal/service"
	"github.com/mmynk/splitty/internal/session"
	"github.com/mmynk/splitty/internal/storage/sqlite"
	"github.com/mmynk/splitty/pkg/api/apiconnect"
	"github.com/mmynk/splitty/pkg/logging"
)

func main() {
	config.LoadDotEnv()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg := config.LoadOrEnv(configPath)

	logging.Configure(cfg.Logging.Level, cfg.Logging.Format)

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize SQLite storage
	store, err := sqlite.New(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.Storage.DatabasePath)

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenDuration)
	authenticator := auth.NewPasswordAuthenticator(store)

	rec := recognizer.NewHTTPClient(cfg.Recognizer.BaseURL,
		recognizer.WithHTTPClient(&http.Client{Timeout: cfg.Recognizer.Timeout}),
		recognizer.WithMaxDimension(cfg.Recognizer.MaxDimension),
	)
	slog.Info("Recognizer configured", "url", cfg.Recognizer.BaseURL, "timeout", cfg.Recognizer.Timeout)

	sessions := session.NewManager(cfg.Session.IdleTimeout)
	if cfg.Session.IdleTimeout > 0 {
		go sessions.Run(ctx, cfg.Session.SweepInterval)
	}

	mux := http.NewServeMux()

	// Register Connect services. Auth is public; everything else needs a token.
	logged := connect.WithInterceptors(middleware.LoggingInterceptor())
	protected := connect.WithInterceptors(middleware.RequireAuth(jwtManager), middleware.LoggingInterceptor())

	authPath, authHandler := apiconnect.NewAuthServiceHandler(
		service.NewAuthService(authenticator, jwtManager, slog.Default()), logged)
	mux.Handle(authPath, authHandler)

	sessionPath, sessionHandler := apiconnect.NewSessionServiceHandler(
		service.NewSessionService(sessions, rec, store), protected)
	mux.Handle(sessionPath, sessionHandler)

	historyPath, historyHandler := apiconnect.NewHistoryServiceHandler(
		service.NewHistoryService(store), protected)
	mux.Handle(historyPath, historyHandler)

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	handler := middleware.Logging(middleware.CORS(cfg.Server.AllowedOrigins)(mux))

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", srv.Addr, "url", fmt.Sprintf("http://localhost%s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down", "open_sessions", sessions.Len())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studybuddy/app"
	"studybuddy/config"
	"studybuddy/handlers"
	"studybuddy/logging"
	"studybuddy/services/session"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	flush, err := logging.Init(cfg.LogLevel, false)
	if err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		zap.S().Fatalf("Failed to initialize application: %v", err)
	}
	defer application.Close()

	sessions := application.Sessions()
	sessionHandler := handlers.NewSessionHandler(sessions)

	router := mux.NewRouter()

	router.Use(corsMiddleware)
	router.Use(jsonMiddleware)

	router.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("OPTIONS")

	sessionHandler.RegisterRoutes(router)

	router.HandleFunc("/health", healthCheckHandler).Methods("GET")

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		zap.S().Fatalf("Server failed to start: %v", err)
	}

	zap.S().Infof("Server starting on port %s", cfg.Port)
	if err := serve(ctx, srv, ln, sessions); err != nil {
		zap.S().Fatalf("Server failed: %v", err)
	}
	zap.S().Infof("Server stopped")
}

// serve runs srv until ctx is cancelled. In-flight requests are drained
// before the sessions are closed, and serve returns only after both.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, sessions *session.Manager) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.S().Errorf("Failed to shut down server: %v", err)
	}
	sessions.CloseAll(shutdownCtx)
	return <-errCh
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Expose-Headers", "*")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "healthy"}`))
}

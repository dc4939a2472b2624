package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gigstack/setlistgo/internal/config"
	"github.com/gigstack/setlistgo/internal/gateway"
	"github.com/gigstack/setlistgo/internal/handlers"
	"github.com/gigstack/setlistgo/internal/models"
	"github.com/gigstack/setlistgo/internal/reconcile"
	"github.com/gigstack/setlistgo/internal/store"
	"github.com/gigstack/setlistgo/internal/websocket"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Wire the reconciliation engine
	gw := gateway.New(gateway.Endpoints{
		Songs:    cfg.Endpoints.Songs,
		Setlists: cfg.Endpoints.Setlists,
		Items:    cfg.Endpoints.Items,
	})

	confirmer := reconcile.NewConfirmer(
		reconcile.Policy{
			Attempts: cfg.Reconcile.CreateAttempts,
			Delay:    time.Duration(cfg.Reconcile.CreateDelayMs) * time.Millisecond,
		},
		reconcile.Policy{
			Attempts: cfg.Reconcile.UpdateAttempts,
			Delay:    time.Duration(cfg.Reconcile.UpdateDelayMs) * time.Millisecond,
		},
		nil,
	)

	st := store.New(gw, confirmer)

	// 3. Start the change notification hub
	hub := websocket.NewHub()
	go hub.Run()
	st.Subscribe(func(ev models.ChangeEvent) {
		hub.Broadcast(ev)
	})

	// 4. Initial load. A failure here is not fatal: endpoints may come up
	// later, and every mutation re-fetches anyway.
	log.Println("📥 Loading initial state from remote...")
	if err := st.Load(context.Background()); err != nil {
		log.Printf("⚠️ Initial load failed: %v", err)
	}

	// 5. Set up HTTP router
	router := handlers.NewRouter(cfg, st, hub)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router.Handler(),
	}

	// Channel to listen for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on port %s\n", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	sig := <-shutdown
	log.Printf("\n⚠️  Received signal: %v. Shutting down gracefully...\n", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}

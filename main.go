package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/convokeep/convokeep/config"
	"github.com/convokeep/convokeep/internal/adapter/moderation"
	"github.com/convokeep/convokeep/internal/authorcache"
	"github.com/convokeep/convokeep/internal/repository"
	"github.com/convokeep/convokeep/internal/service"
	transport "github.com/convokeep/convokeep/internal/transport/http"
	"github.com/convokeep/convokeep/policy"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log.Printf("Starting convokeep...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Database: %s", cfg.DatabaseURL)
	log.Printf("Moderation endpoint: %s", cfg.ModerationURL)

	// Initialize store
	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer db.Close()

	// Initialize author cache
	authors, err := authorcache.Open(cfg.AuthorCacheDir)
	if err != nil {
		log.Fatalf("Failed to open author cache: %v", err)
	}
	defer authors.Close()

	// Initialize moderation client
	classifier := moderation.NewClient(cfg.ModerationURL, cfg.ModerationAPIKey, cfg.ModerationModel, cfg.ModerationTimeout)

	// Initialize policy engine
	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Initialize service
	svc := service.New(db, classifier, policyEngine, authors, cfg)

	// Warm check: count stored conversations on startup
	convs, err := svc.LoadConversations(ctx)
	if err != nil {
		log.Fatalf("Failed to load conversations: %v", err)
	}
	log.Printf("Loaded %d stored conversations", len(convs))

	// Create HTTP server
	server := transport.NewServer(svc)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("API started on port %d", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down convokeep...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("Convokeep stopped")
}

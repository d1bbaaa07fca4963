/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the Swipe Engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store
  3. Load the category taxonomy (file or builtin defaults)
  4. Wire the reward service and API handler
  5. Optionally seed demo data
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port      HTTP server port (default: 8080)
  -db        SQLite database path (default: swipe.db)
             Use ":memory:" for in-memory database
  -taxonomy  Path to a taxonomy YAML file (optional; builtin defaults
             are used when absent or unreadable)
  -seed      Load demo cards and expenses into an empty database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database and demo data
  ./server -db="./data/swipe.db" -seed

  # Run with in-memory database
  ./server -db=":memory:" -seed

  # Run with a custom taxonomy
  ./server -taxonomy="./config/taxonomy.yaml"

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/swipe-engine/api"
	"github.com/warp/swipe-engine/engine"
	"github.com/warp/swipe-engine/store/sqlite"
	"github.com/warp/swipe-engine/taxonomy"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "swipe.db", "SQLite database path")
	taxonomyPath := flag.String("taxonomy", "", "Taxonomy YAML file (builtin defaults when empty)")
	seed := flag.Bool("seed", false, "Seed demo data into an empty database")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Taxonomy: Load degrades to builtin defaults on any error.
	var tax *taxonomy.Taxonomy
	if *taxonomyPath != "" {
		tax = taxonomy.Load(*taxonomyPath)
	} else {
		tax = taxonomy.Defaults()
	}

	// Wire service and handler
	svc := engine.NewService(store, tax)
	handler := api.NewHandler(svc, store)

	if *seed {
		if err := api.Seed(context.Background(), svc, store); err != nil {
			log.Printf("Warning: Failed to seed demo data: %v", err)
		}
	}

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		log.Printf("API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

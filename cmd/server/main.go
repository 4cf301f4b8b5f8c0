package main

import (
	"alcyxob/myhealth/internal/app"
	"alcyxob/myhealth/internal/config"
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

// @title myhealth API
// @version 1.0
// @description Local-first API for saved workouts, routines, workout history and body weight.
// @host localhost:8787
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Optional. Type "Bearer" followed by a space and the session token.
func main() {
	log.Println("Starting myhealth server...")
	for _, e := range os.Environ() {
		pair := strings.SplitN(e, "=", 2)
		// Secrets stay out of the log
		if strings.HasPrefix(pair[0], "STORE_") || strings.HasPrefix(pair[0], "SERVER_") || pair[0] == "REMOTE_DRIVER" || pair[0] == "SYNC_INTERVAL" {
			log.Printf("ENV: %s = %s", pair[0], pair[1])
		}
	}

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// Cancelled on SIGINT/SIGTERM; stops the sync loop and the server
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Stores, repository, session and sync engine ---
	a, err := app.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("FATAL: Could not initialize app: %v", err)
	}
	defer func() {
		log.Println("Closing stores...")
		if err := a.Close(); err != nil {
			log.Printf("ERROR: Failed to close stores: %v", err)
		}
	}()

	// --- Periodic sync ---
	a.StartSync(ctx)

	// --- HTTP server with graceful shutdown ---
	if err := a.Serve(ctx); err != nil {
		log.Printf("ERROR: Server stopped: %v", err)
	}
}

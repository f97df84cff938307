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

	"github.com/Qqcola/ads-price-compare/internal/api"
	"github.com/Qqcola/ads-price-compare/internal/config"
	"github.com/Qqcola/ads-price-compare/internal/relay"
	"github.com/Qqcola/ads-price-compare/internal/store"
)

func main() {
	// Load configuration
	config.LoadConfig()
	config.RequireAuthSecrets()

	// Setup logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if config.AppConfig.LogLevel == "DEBUG" {
		log.Println("Service starting in DEBUG mode")
	}

	// Initialize database store
	dbStore, err := store.NewMongoStore(context.Background(), config.AppConfig.MongoURI, config.AppConfig.DBName)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := dbStore.Close(context.Background()); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	// Initialize API handler, relay and router
	apiHandler := api.NewAPIHandler(dbStore, dbStore, dbStore, config.AppConfig)
	relayHandler := relay.NewHandler(config.AppConfig.ChatServiceURL)
	router := api.NewRouter(apiHandler, relayHandler)

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)

	srv := &http.Server{
		Addr:        serverAddr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// No write timeout: the relay holds a socket open per chat session.
		IdleTimeout: 120 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		log.Printf("ADS app running on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting gracefully")
}

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
	"github.com/Qqcola/ads-price-compare/internal/core"
	"github.com/Qqcola/ads-price-compare/internal/store"
)

func main() {
	// Load configuration
	config.LoadConfig()
	config.RequireGeminiKeys()

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

	// Build the two credential pools: one for intent classification, one
	// for answer streaming.
	classifierPool, closeClassifiers, err := core.NewGeminiPool(context.Background(), config.AppConfig.ClassifierKeys)
	if err != nil {
		log.Fatalf("Failed to create classifier client pool: %v", err)
	}
	defer closeClassifiers()

	streamPool, closeStreamers, err := core.NewGeminiPool(context.Background(), config.AppConfig.StreamKeys)
	if err != nil {
		log.Fatalf("Failed to create stream client pool: %v", err)
	}
	defer closeStreamers()

	classifier := core.NewIntentClassifier(classifierPool)
	retriever := core.NewRetriever(dbStore)
	streamer := core.NewAnswerStreamer(classifier, retriever, streamPool)

	router := api.NewChatRouter(streamer)
	serverAddr := fmt.Sprintf(":%s", config.AppConfig.ChatServicePort)

	srv := &http.Server{
		Addr:        serverAddr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// No write timeout: completion streams run as long as the model talks.
		IdleTimeout: 120 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		log.Printf("Chat service running on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down chat service...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Chat service exiting gracefully")
}

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

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/tucsfe/askai/internal/api"
	"github.com/tucsfe/askai/internal/auth"
	"github.com/tucsfe/askai/internal/config"
	"github.com/tucsfe/askai/internal/rag"
	"github.com/tucsfe/askai/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	reindexFlag := flag.Bool("reindex", false, "Rebuild the vector index from the knowledge base and exit")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Gemini client is shared by the primary embedder and the generator.
	genaiClient, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		log.Fatalf("Failed to create GenAI client: %v", err)
	}
	defer genaiClient.Close()

	embedder := rag.NewFallbackEmbedder(
		rag.NewGeminiEmbedder(genaiClient, cfg.EmbedModel),
		rag.NewOllamaEmbedder(cfg.OllamaBaseURL, cfg.OllamaEmbedModel),
	)
	generator := rag.NewGeminiGenerator(genaiClient, cfg.GenModel)

	pipeline := rag.NewPipeline(cfg.KBPath, cfg.IndexPath, cfg.ChunkSize, cfg.ChunkOverlap, cfg.TopK, embedder, generator)

	if *reindexFlag {
		log.Println("Rebuilding vector index...")
		n, err := pipeline.Rebuild(ctx)
		if err != nil {
			log.Fatalf("Index rebuild failed: %v", err)
		}
		log.Printf("Index rebuild complete. Indexed %d chunks. Exiting.", n)
		os.Exit(0)
	}

	dbStore, err := store.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("Failed to initialize document store: %v", err)
	}
	defer func() {
		if err := dbStore.Close(context.Background()); err != nil {
			log.Printf("Error closing document store: %v", err)
		}
	}()

	authSvc := auth.NewService(dbStore, time.Duration(cfg.SessionTTLHours)*time.Hour)

	apiHandler := api.NewAPIHandler(dbStore, authSvc, pipeline, nil, cfg.GoogleClientID)
	router := api.NewRouter(apiHandler, cfg.CORSOrigins)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // LLM calls can take time
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting gracefully")
}

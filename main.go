package main

import (
	"context"
	"log"
	"net/http"
	"time"

	controller "github.com/Itish41/EmployeeCounsel/controller"
	"github.com/Itish41/EmployeeCounsel/initializers"
	"github.com/Itish41/EmployeeCounsel/provider"
	services "github.com/Itish41/EmployeeCounsel/service"
)

func main() {
	if err := initializers.LoadEnv(); err != nil {
		log.Printf("[WARN] %s, using process environment", err)
	}
	cfg := initializers.MustLoad()

	openaiStore := provider.NewOpenAIStore(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, nil)

	lifecycle := services.NewIndexLifecycleService(openaiStore, openaiStore)
	retrieval := services.NewRetrievalService(openaiStore, cfg.OpenAIModel)
	documents := services.NewDocumentService(lifecycle, cfg.UserIndexID, cfg.RegulationIndexID, cfg.SessionTTL)
	documents.WaitForIndexing = cfg.WaitForIndexing
	analysis := services.NewAnalysisService(retrieval, cfg.RegulationIndexID, cfg.MaxSearchResults)
	chat := services.NewChatService(retrieval, cfg.UserIndexID, cfg.MaxSearchResults)

	if cfg.DatabaseURL != "" {
		db, err := initializers.ConnectDB(cfg.DatabaseURL, cfg.DebugSQL)
		if err != nil {
			log.Fatalf("[CRITICAL] Failed to initialize database connection: %s", err)
		}
		if err := initializers.Migrate(db, initializers.DefaultMigrationsDir); err != nil {
			log.Fatalf("[CRITICAL] Failed to run database migrations: %s", err)
		}
		repo := services.NewGormDocumentRepository(db)
		lifecycle.Repo = repo
		documents.Repo = repo
		analysis.Repo = repo
	} else {
		log.Println("[WARN] DIRECT_URL not set, documents and analyses will not be persisted")
	}

	if cfg.ElasticsearchURL != "" {
		es, err := provider.NewElasticClient(cfg.ElasticsearchURL)
		if err != nil {
			log.Fatalf("[CRITICAL] %s", err)
		}
		archive := provider.NewElasticAnalysisArchive(es, cfg.AnalysisArchiveIndex)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := archive.EnsureIndex(ctx); err != nil {
			log.Printf("[WARN] analysis archive unavailable: %s", err)
		} else {
			analysis.Archive = archive
		}
		cancel()
	}

	if cfg.S3Enabled() {
		blobs, err := provider.NewS3Archive(provider.S3Config{
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
		})
		if err != nil {
			log.Fatalf("[CRITICAL] %s", err)
		}
		documents.Blobs = blobs
	}

	docController := controller.NewDocumentController(documents, analysis, chat, lifecycle,
		[]string{cfg.UserIndexID})
	router := controller.NewRouter(docController, cfg.CronSecret)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("Listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("[CRITICAL] server stopped: %s", err)
	}
}

package main

import (
	"context"
	"log"

	"db-rag-be/internal/bootstrap"
	"db-rag-be/internal/config"
	"db-rag-be/internal/server"
	"db-rag-be/internal/tracer"
	"db-rag-be/pkg/database"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 3. Initialize Database
	gormDB, err := database.NewGormDB(cfg.Database.Connection, cfg.App.Environment)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 4. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	if container.NatsPublisher != nil {
		defer container.NatsPublisher.Close()
	}

	// 5. Prepare storage and the table catalog
	if err := container.Orchestrator.Initialize(context.Background()); err != nil {
		log.Panicf("Unable to initialize retrieval engine: %v", err)
	}

	// 6. Start Background Services
	go func() {
		log.Println("Background: Starting Ingest Consumer Service...")
		if err := container.IngestConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()

	// 7. Initialize Server
	srv := server.New(cfg, container)

	// 8. Run Server
	log.Fatal(srv.Run())
}

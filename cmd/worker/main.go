package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"db-rag-be/internal/bootstrap"
	"db-rag-be/internal/config"
	"db-rag-be/pkg/database"
	"db-rag-be/pkg/events"
	pkgNats "db-rag-be/pkg/nats"
)

// The worker drains catalog sync requests off the NATS bus so heavy
// LLM summarization never blocks an HTTP request.
func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDB(cfg.Database.Connection, cfg.App.Environment)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	manager := container.CatalogManager

	if err := manager.EnsureCatalogTable(context.Background()); err != nil {
		log.Panicf("Unable to ensure catalog table: %v", err)
	}

	// 4. Subscribe to catalog sync requests
	subject := fmt.Sprintf("events.%s", events.TypeCatalogSyncRequested)
	sub, err := pkgNats.NewSubscriber(cfg.App.NatsURL, "catalog-sync-worker", subject)
	if err != nil {
		log.Panicf("Unable to create NATS subscriber: %v", err)
	}
	defer sub.Close()

	handler := func(ctx context.Context, event events.Event) error {
		data := event.Payload()
		tableName, _ := data["table_name"].(string)
		force, _ := data["force"].(bool)

		if tableName != "" {
			log.Printf("Worker: Syncing table '%s' (force=%v)", tableName, force)
			return manager.SyncTable(ctx, tableName, force)
		}

		log.Printf("Worker: Syncing all tables (force=%v)", force)
		synced, failed, err := manager.SyncAll(ctx, force)
		if err != nil {
			return err
		}
		log.Printf("Worker: Synced %d tables, %d failed", synced, len(failed))
		return nil
	}

	if err := sub.Start(handler); err != nil {
		log.Panicf("Unable to start NATS subscriber: %v", err)
	}

	log.Println("✅ Catalog sync worker is running")

	// 5. Block until interrupted
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Worker shutting down...")
}

package main

import (
	"log"
	"os"

	"db-rag-be/internal/model"
	"db-rag-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDB(dsn, os.Getenv("APP_ENV"))
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting Authoritative GORM Migration...")

	// 3. Pre-Migration: Extensions (Things GORM AutoMigrate doesn't do)
	log.Println("Step 1: Setting up Extensions...")

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate All Models
	log.Println("Step 2: Running AutoMigrate...")

	models := []interface{}{
		&model.TableCatalogEntry{},
		&model.Document{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatal("Error: AutoMigrate failed:", err)
	}

	// 5. Post-Migration: ANN indexes for similarity search
	log.Println("Step 3: Creating vector indexes...")

	indexSQL := []string{
		`CREATE INDEX IF NOT EXISTS idx_company_documents_embedding
			ON company_documents USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);`,
		`CREATE INDEX IF NOT EXISTS idx_table_metadata_catalog_embedding
			ON table_metadata_catalog USING ivfflat (description_embedding vector_cosine_ops) WITH (lists = 100);`,
		`CREATE INDEX IF NOT EXISTS idx_company_documents_metadata
			ON company_documents USING gin (metadata);`,
	}

	for _, sql := range indexSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to create index: %v. Continuing...", err)
		}
	}

	log.Println("✅ Migration completed successfully")
}

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"db-rag-be/internal/bootstrap"
	"db-rag-be/internal/config"
	"db-rag-be/internal/dto"
	"db-rag-be/internal/service"
	"db-rag-be/pkg/database"

	"github.com/fatih/color"
)

// Pretty print JSON helper
func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(b))
}

func main() {
	cfg := config.Load()

	gormDB, err := database.NewGormDB(cfg.Database.Connection, cfg.App.Environment)
	if err != nil {
		log.Fatalf("Unable to connect to GORM DB: %v", err)
	}

	container := bootstrap.NewContainer(gormDB, cfg)
	if container.NatsPublisher != nil {
		defer container.NatsPublisher.Close()
	}

	ctx := context.Background()
	if err := container.Orchestrator.Initialize(ctx); err != nil {
		log.Fatalf("Unable to initialize retrieval engine: %v", err)
	}

	queryService := service.NewQueryService(container.Orchestrator, container.Logger)

	color.Cyan("🚀 Database RAG Console")
	color.White("Ask a question, or use /sql <q>, /vector <q>, /sync [table], /quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		color.Yellow("\n> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if line == "/quit" || line == "/exit" {
			break
		}

		if strings.HasPrefix(line, "/sync") {
			tableName := strings.TrimSpace(strings.TrimPrefix(line, "/sync"))
			if tableName != "" {
				if err := container.CatalogManager.SyncTable(ctx, tableName, true); err != nil {
					color.Red("Sync failed: %v", err)
					continue
				}
				color.Green("Synced table '%s'", tableName)
				continue
			}
			synced, failed, err := container.CatalogManager.SyncAll(ctx, false)
			if err != nil {
				color.Red("Sync failed: %v", err)
				continue
			}
			color.Green("Synced %d tables (%d failed)", synced, len(failed))
			continue
		}

		req := dto.QueryRequest{Question: line, Mode: "auto"}
		switch {
		case strings.HasPrefix(line, "/sql "):
			req = dto.QueryRequest{Question: strings.TrimPrefix(line, "/sql "), Mode: "sql"}
		case strings.HasPrefix(line, "/vector "):
			req = dto.QueryRequest{Question: strings.TrimPrefix(line, "/vector "), Mode: "vector"}
		}

		resp, err := queryService.Query(ctx, req)
		if err != nil {
			color.Red("Failed: %v", err)
			continue
		}

		color.Green("\n%s", resp.Answer)
		if len(resp.ToolsUsed) > 0 {
			color.White("\nTools: %s (%dms)", strings.Join(resp.ToolsUsed, ", "), resp.ElapsedMs)
		}
		if resp.Structured != nil {
			if resp.Structured.Success {
				color.White("SQL: %s", resp.Structured.SQL)
			} else {
				color.Red("SQL path failed: %s", resp.Structured.Error)
			}
		}
		if resp.Unstructured != nil {
			if !resp.Unstructured.Success {
				color.Red("Document search failed: %s", resp.Unstructured.Error)
			} else if len(resp.Unstructured.Matches) > 0 {
				color.White("Matched documents:")
				prettyPrint(resp.Unstructured.Matches)
			}
		}
	}
}

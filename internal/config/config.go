package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Ai       AIConfig
	Rag      RagConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	EmbeddingProvider   string // "openai" or "ollama"
	EmbeddingModel      string
	EmbeddingDimensions int
	OllamaBaseURL       string
	LLMProvider         string // "openai" or "ollama"
	LLMModel            string
	OpenAIAPIKey        string
	OpenAIBaseURL       string
}

type RagConfig struct {
	EnableVectorSearch    bool
	EnableSQLSearch       bool
	EnableQueryValidation bool
	EnableAutoCatalogSync bool
	MaxContextTables      int
	MaxVectorResults      int
	SimilarityThreshold   float64
	MaxResultRows         int
	ChunkSize             int
	ChunkOverlap          int
	EmbeddingCacheTTL     time.Duration
	IngestTopic           string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider:   getEnv("EMBEDDING_PROVIDER", "openai"),
			EmbeddingModel:      getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
			EmbeddingDimensions: getEnvAsInt("EMBEDDING_DIMENSIONS", 1536),
			OllamaBaseURL:       getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			LLMProvider:         getEnv("LLM_PROVIDER", "openai"),
			LLMModel:            getEnv("LLM_MODEL", "gpt-4o"),
			OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:       getEnv("OPENAI_BASE_URL", "https://api.openai.com"),
		},
		Rag: RagConfig{
			EnableVectorSearch:    getEnvAsBool("RAG_ENABLE_VECTOR_SEARCH", true),
			EnableSQLSearch:       getEnvAsBool("RAG_ENABLE_SQL_SEARCH", true),
			EnableQueryValidation: getEnvAsBool("RAG_ENABLE_QUERY_VALIDATION", true),
			EnableAutoCatalogSync: getEnvAsBool("RAG_ENABLE_AUTO_CATALOG_SYNC", false),
			MaxContextTables:      getEnvAsInt("RAG_MAX_CONTEXT_TABLES", 5),
			MaxVectorResults:      getEnvAsInt("RAG_MAX_VECTOR_RESULTS", 3),
			SimilarityThreshold:   getEnvAsFloat("RAG_SIMILARITY_THRESHOLD", 0.3),
			MaxResultRows:         getEnvAsInt("RAG_MAX_RESULT_ROWS", 500),
			ChunkSize:             getEnvAsInt("RAG_CHUNK_SIZE", 1000),
			ChunkOverlap:          getEnvAsInt("RAG_CHUNK_OVERLAP", 200),
			EmbeddingCacheTTL:     time.Duration(getEnvAsInt("RAG_EMBEDDING_CACHE_TTL_HOURS", 24)) * time.Hour,
			IngestTopic:           getEnv("INGEST_DOCUMENT_TOPIC_NAME", "INGEST_DOCUMENT"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

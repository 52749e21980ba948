package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Ai        AIConfig
	Knowledge KnowledgeConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	IngestTopic        string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	Provider string // "ollama" or "deepseek"

	OllamaBaseURL string
	OllamaModel   string

	DeepSeekAPIKey  string
	DeepSeekModel   string
	DeepSeekBaseURL string

	EmbeddingModel string
	Temperature    float64
	SearchMode     string // "knowledge" | "hybrid" | "model_only"
}

type KnowledgeConfig struct {
	UploadDir    string
	ChunkSize    int // words per chunk
	ChunkOverlap int // words shared between consecutive chunks
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/sphere.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			IngestTopic:        getEnv("INGEST_DOCUMENT_TOPIC_NAME", "INGEST_DOCUMENT"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			Provider:        getEnv("AI_PROVIDER", "ollama"),
			OllamaBaseURL:   getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:     getEnv("OLLAMA_MODEL", "llama3"),
			DeepSeekAPIKey:  getEnv("DEEPSEEK_API_KEY", ""),
			DeepSeekModel:   getEnv("DEEPSEEK_MODEL", "deepseek-chat"),
			DeepSeekBaseURL: getEnv("DEEPSEEK_BASE_URL", "https://api.deepseek.com"),
			EmbeddingModel:  getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			Temperature:     getEnvAsFloat("AI_TEMPERATURE", 0.7),
			SearchMode:      getEnv("AI_SEARCH_MODE", "hybrid"),
		},
		Knowledge: KnowledgeConfig{
			UploadDir:    getEnv("KNOWLEDGE_UPLOAD_DIR", "uploads/knowledge"),
			ChunkSize:    getEnvAsInt("KNOWLEDGE_CHUNK_SIZE", 500),
			ChunkOverlap: getEnvAsInt("KNOWLEDGE_CHUNK_OVERLAP", 50),
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

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

package config

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/tucsfe/askai/internal/secrets"
)

type Config struct {
	MongoURI       string
	MongoDB        string
	HTTPPort       string
	GoogleClientID string
	GeminiAPIKey   string

	KBPath       string
	IndexPath    string
	ChunkSize    int
	ChunkOverlap int
	TopK         int

	GenModel         string
	EmbedModel       string
	OllamaBaseURL    string
	OllamaEmbedModel string

	SessionTTLHours int
	CORSOrigins     []string
}

// Load reads configuration from the environment (a .env file is honored if
// present). MONGO_URI and GEMINI_API_KEY may live in a secret backend; they
// are resolved through the secrets package, which falls back to plain
// environment variables.
func Load(ctx context.Context) (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := Config{
		MongoDB:        getEnv("MONGO_DB", "tucsfe_ai"),
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		GoogleClientID: getEnv("GOOGLE_CLIENT_ID", ""),

		KBPath:       getEnv("KB_PATH", "data/knowledge_base"),
		IndexPath:    getEnv("INDEX_PATH", "data/index"),
		ChunkSize:    getEnvAsInt("CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvAsInt("CHUNK_OVERLAP", 200),
		TopK:         getEnvAsInt("RETRIEVAL_TOP_K", 3),

		GenModel:         getEnv("GEN_MODEL", "gemini-1.5-pro"),
		EmbedModel:       getEnv("EMBED_MODEL", "text-embedding-004"),
		OllamaBaseURL:    getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaEmbedModel: getEnv("OLLAMA_EMBED_MODEL", "nomic-embed-text"),

		SessionTTLHours: getEnvAsInt("SESSION_TTL_HOURS", 24),
		CORSOrigins:     splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
	}

	uri, err := secrets.Resolve(ctx, "MONGO_URI")
	if err != nil {
		uri = "mongodb://localhost:27017"
		log.Printf("MONGO_URI not found in any secret backend, using default %s", uri)
	}
	cfg.MongoURI = uri

	key, err := secrets.Resolve(ctx, "GEMINI_API_KEY")
	if err != nil {
		return Config{}, err
	}
	cfg.GeminiAPIKey = key

	return cfg, nil
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package config

import (
	"os"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	JWKSURL     string
	CORSOrigins string
	TablePrefix string
	// Knowledge pipeline collaborators
	TavilyAPIKey    string
	OpenAIAPIKey    string
	OpenAIModel     string
	OllamaURL       string
	EmbeddingModel  string
	VectorStoreDir  string
	CuratedIndexDir string
	// Path to the retrieval tuning file (thresholds, timeouts)
	RetrievalConfigPath string
	// Optional directory for file logging alongside stdout
	LogDir string
	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		DatabaseURL: getEnv("DATABASE_URL", ""),
		JWKSURL:     getEnv("JWKS_URL", ""),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix: getTablePrefix(env),
		// Knowledge pipeline collaborators
		TavilyAPIKey:        getEnv("TAVILY_API_KEY", ""),
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:         getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OllamaURL:           getEnv("OLLAMA_URL", "http://localhost:11434"),
		EmbeddingModel:      getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
		VectorStoreDir:      getEnv("VECTOR_STORE_DIR", "./data/vectors"),
		CuratedIndexDir:     getEnv("CURATED_INDEX_DIR", "./data/curated.bleve"),
		RetrievalConfigPath: getEnv("RETRIEVAL_CONFIG", ""),
		LogDir:              getEnv("LOG_DIR", ""),
		// Debug defaults to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

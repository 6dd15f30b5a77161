package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Qdrant    QdrantConfig
	Embedding EmbeddingConfig
	Mistral   MistralConfig
	Redis     RedisConfig
	Recommend RecommendConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port string
	// BaseURL is used to rewrite local thumbnail paths into absolute
	// static-image URLs in responses.
	BaseURL string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type QdrantConfig struct {
	Host       string
	Port       string
	APIKey     string
	Collection string
}

type EmbeddingConfig struct {
	Endpoint string
	APIKey   string
	Model    string
}

type MistralConfig struct {
	APIKey string
	URL    string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type RecommendConfig struct {
	// CSVPath points at the demographic category-weight table loaded at
	// startup.
	CSVPath      string
	ImageBaseDir string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.New("invalid redis database")
		}
		redisDB = n
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "CampusMarket Recommendation API"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port:    getEnv("PORT", "8000"),
			BaseURL: getEnv("SERVER_BASE_URL", "http://localhost:8000"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "campus_market"),
		},
		Qdrant: QdrantConfig{
			Host:       getEnv("QDRANT_HOST", "127.0.0.1"),
			Port:       getEnv("QDRANT_PORT", "6333"),
			APIKey:     getEnv("QDRANT_API_KEY", ""),
			Collection: getEnv("QDRANT_COLLECTION_NAME", "items"),
		},
		Embedding: EmbeddingConfig{
			Endpoint: getEnv("EMBEDDING_ENDPOINT", ""),
			APIKey:   getEnv("EMBEDDING_API_KEY", ""),
			Model:    getEnv("EMBEDDING_MODEL", "all-MiniLM-L6-v2"),
		},
		Mistral: MistralConfig{
			APIKey: getEnv("MISTRAL_API_KEY", ""),
			URL:    getEnv("MISTRAL_URL", "https://api.mistral.ai/v1/chat/completions"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Recommend: RecommendConfig{
			CSVPath:      getEnv("CSV_PATH", ""),
			ImageBaseDir: getEnv("IMAGE_BASE_DIR", "/mnt/sdb-data/daangn_images"),
		},
	}

	if cfg.Database.Password == "" {
		return nil, errors.New("missing database password")
	}

	if cfg.Recommend.CSVPath == "" {
		return nil, errors.New("missing recommendation weight csv path")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

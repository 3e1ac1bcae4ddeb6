package config

import (
	"os"
	"strconv"
)

type Config struct {
	// Server
	ServerHost string
	ServerPort int

	// Scan defaults
	OutputRoot  string
	DataDir     string
	Parallelism int

	// Database (optional; the file store is used when DBHost is empty)
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	// Notifications
	DiscordToken   string
	DiscordChannel string

	// Artifact storage (optional)
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// AI summaries (optional)
	OpenAIKey   string
	OpenAIModel string
}

// LoadConfig loads configuration from environment variables with sensible
// defaults. Optional integrations stay disabled when their variables are
// unset.
func LoadConfig() *Config {
	return &Config{
		ServerHost: getenvDefault("SERVER_HOST", "0.0.0.0"),
		ServerPort: getenvInt("SERVER_PORT", 8080),

		OutputRoot:  getenvDefault("OUTPUT_ROOT", "scans"),
		DataDir:     os.Getenv("DATA_DIR"),
		Parallelism: getenvInt("PARALLELISM", 1),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     getenvInt("DB_PORT", 5432),
		DBUser:     getenvDefault("DB_USER", "vulnhawk"),
		DBPassword: getenvDefault("DB_PASSWORD", "vulnhawk"),
		DBName:     getenvDefault("DB_NAME", "vulnhawk"),

		DiscordToken:   os.Getenv("DISCORD_TOKEN"),
		DiscordChannel: os.Getenv("DISCORD_CHANNEL_ID"),

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getenvDefault("MINIO_BUCKET", "vulnhawk-reports"),
		MinioUseSSL:    getenvBool("MINIO_USE_SSL", false),

		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel: getenvDefault("OPENAI_MODEL", "gpt-4o-mini"),
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

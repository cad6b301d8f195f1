package common

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/certidao-ocr/constants"
)

// Config holds all application configuration
type Config struct {
	LLM     LLMConfig
	Server  ServerConfig
	Store   StoreConfig
	Storage StorageConfig
}

// LLMConfig holds inference-related configuration
type LLMConfig struct {
	Provider      string // ollama | vertex
	Host          string
	VisionModel   string
	TextModel     string
	NumCtx        int
	Timeout       time.Duration
	NormalizeText bool
	VertexProject string
	VertexRegion  string
}

// ServerConfig holds daemon listen addresses
type ServerConfig struct {
	GRPCAddr string
	HTTPAddr string
}

// StoreConfig holds record-store configuration
type StoreConfig struct {
	DSN         string
	MaxConns    int32
	MinConns    int32
	DialTimeout time.Duration
}

// StorageConfig holds object-storage configuration
type StorageConfig struct {
	S3Endpoint   string
	S3Region     string
	S3AccessKey  string
	S3SecretKey  string
	OutputBucket string
	OutputPrefix string
}

// LoadDotEnv loads a .env file outside production. A missing file is fine.
func LoadDotEnv() {
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:      strings.ToLower(getEnv("INFERENCE_PROVIDER", "ollama")),
			Host:          getEnv("OLLAMA_HOST", constants.DefaultOllamaHost),
			VisionModel:   getEnv("VISION_MODEL", constants.DefaultVisionModel),
			TextModel:     getEnv("TEXT_MODEL", constants.DefaultTextModel),
			NumCtx:        getEnvAsInt("LLM_NUM_CTX", constants.DefaultNumCtx),
			Timeout:       getEnvAsDuration("LLM_TIMEOUT", 5*time.Minute),
			NormalizeText: getEnvAsBool("NORMALIZE_TEXT", false),
			VertexProject: getEnv("VERTEX_PROJECT_ID", ""),
			VertexRegion:  getEnv("VERTEX_REGION", "us-central1"),
		},
		Server: ServerConfig{
			GRPCAddr: getEnv("GRPC_ADDR", ":8080"),
			HTTPAddr: getEnv("HTTP_ADDR", ":8081"),
		},
		Store: StoreConfig{
			DSN:         getEnv("STORE_DSN", ""),
			MaxConns:    getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:    getEnvAsInt32("DB_MIN_CONNS", 1),
			DialTimeout: getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Storage: StorageConfig{
			S3Endpoint:   getEnv("S3_ENDPOINT", ""),
			S3Region:     getEnv("S3_REGION", "auto"),
			S3AccessKey:  getEnv("S3_ACCESS_KEY", ""),
			S3SecretKey:  getEnv("S3_SECRET_KEY", ""),
			OutputBucket: getEnv("OUTPUT_BUCKET", ""),
			OutputPrefix: getEnv("OUTPUT_PREFIX", "certidoes"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator().
		Field("INFERENCE_PROVIDER", c.LLM.Provider, OneOf("ollama", "vertex")).
		Field("VISION_MODEL", c.LLM.VisionModel, Required).
		Field("TEXT_MODEL", c.LLM.TextModel, Required).
		Field("LLM_NUM_CTX", c.LLM.NumCtx, Positive)
	switch c.LLM.Provider {
	case "ollama":
		v.Field("OLLAMA_HOST", c.LLM.Host, Required, HTTPURL)
	case "vertex":
		v.Field("VERTEX_PROJECT_ID", c.LLM.VertexProject, Required).
			Field("VERTEX_REGION", c.LLM.VertexRegion, Required)
	}
	if v.HasErrors() {
		return NewAppError(CodeConfigError, v.ErrorMessage(), nil)
	}
	return nil
}

package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	PORT        string
	BASE_URL    string
	CORS_ORIGIN string
	LOG_LEVEL   string

	ACCESS_TOKEN_SECRET  string
	REFRESH_TOKEN_SECRET string

	FIREBASE_CREDENTIALS_FILE string
	FIREBASE_DATABASE_URL     string
	FIREBASE_STORAGE_BUCKET   string
	FIREBASE_API_KEY          string

	GCP_CLIENT_ID     string
	GCP_CLIENT_SECRET string

	ES_URL      string
	ES_USER     string
	ES_PASSWORD string

	KAFKA_ADDRESS string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		PORT:        getenv("PORT", "8080"),
		BASE_URL:    os.Getenv("BASE_URL"),
		CORS_ORIGIN: os.Getenv("CORS_ORIGIN"),
		LOG_LEVEL:   os.Getenv("LOG_LEVEL"),

		ACCESS_TOKEN_SECRET:  os.Getenv("ACCESS_TOKEN_SECRET"),
		REFRESH_TOKEN_SECRET: os.Getenv("REFRESH_TOKEN_SECRET"),

		FIREBASE_CREDENTIALS_FILE: os.Getenv("FIREBASE_CREDENTIALS_FILE"),
		FIREBASE_DATABASE_URL:     os.Getenv("FIREBASE_DATABASE_URL"),
		FIREBASE_STORAGE_BUCKET:   os.Getenv("FIREBASE_STORAGE_BUCKET"),
		FIREBASE_API_KEY:          os.Getenv("FIREBASE_API_KEY"),

		GCP_CLIENT_ID:     os.Getenv("GCP_CLIENT_ID"),
		GCP_CLIENT_SECRET: os.Getenv("GCP_CLIENT_SECRET"),

		ES_URL:      os.Getenv("ES_URL"),
		ES_USER:     os.Getenv("ES_USER"),
		ES_PASSWORD: os.Getenv("ES_PASSWORD"),

		KAFKA_ADDRESS: os.Getenv("KAFKA_ADDRESS"),
	}

	return config, nil
}

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func getenv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	SERVER_PORT           string
	MONGO_URL             string
	MONGO_DB              string
	JWT_SECRET            string
	KAFKA_ADDRESS         string
	ES_URL                string
	ES_USER               string
	ES_PASSWORD           string
	BRAINTREE_MERCHANT_ID string
	BRAINTREE_PUBLIC_KEY  string
	BRAINTREE_PRIVATE_KEY string
	CLOUDINARY_NAME       string
	CLOUDINARY_KEY        string
	CLOUDINARY_SECRET     string
	LOG_LEVEL             string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		SERVER_PORT:           getenv("SERVER_PORT", "8080"),
		MONGO_URL:             getenv("MONGO_URL", "mongodb://localhost:27017"),
		MONGO_DB:              getenv("MONGO_DB", "shop"),
		JWT_SECRET:            os.Getenv("JWT_SECRET"),
		KAFKA_ADDRESS:         os.Getenv("KAFKA_ADDRESS"),
		ES_URL:                os.Getenv("ES_URL"),
		ES_USER:               os.Getenv("ES_USER"),
		ES_PASSWORD:           os.Getenv("ES_PASSWORD"),
		BRAINTREE_MERCHANT_ID: os.Getenv("BRAINTREE_MERCHANT_ID"),
		BRAINTREE_PUBLIC_KEY:  os.Getenv("BRAINTREE_PUBLIC_KEY"),
		BRAINTREE_PRIVATE_KEY: os.Getenv("BRAINTREE_PRIVATE_KEY"),
		CLOUDINARY_NAME:       os.Getenv("CLOUDINARY_NAME"),
		CLOUDINARY_KEY:        os.Getenv("CLOUDINARY_API_KEY"),
		CLOUDINARY_SECRET:     os.Getenv("CLOUDINARY_API_SECRET_KEY"),
		LOG_LEVEL:             getenv("LOG_LEVEL", "info"),
	}

	return config, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

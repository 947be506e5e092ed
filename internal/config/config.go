// Package config loads server configuration from the environment, with an
// optional .env file for local runs.
package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string

	// StorageDriver selects the backend: "memory" or "postgres".
	StorageDriver string
	PostgresDSN   string

	// KafkaBrokers is optional; empty disables event publishing.
	KafkaBrokers []string

	MirrorTimeout     time.Duration
	ReconcileInterval time.Duration
}

// Load reads .env if present, then the environment, filling defaults for
// anything unset.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: skipping .env: %v", err)
	}

	cfg := Config{
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		StorageDriver:     getEnv("STORAGE_DRIVER", "memory"),
		PostgresDSN:       getEnv("POSTGRES_DSN", ""),
		MirrorTimeout:     getDuration("MIRROR_TIMEOUT", 3*time.Second),
		ReconcileInterval: getDuration("RECONCILE_INTERVAL", time.Minute),
	}
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("config: invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

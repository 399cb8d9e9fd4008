package config

import (
	"fmt"
	"os"
	"strings"
)

// Config holds the runtime configuration of the wallet-core service. Values
// come from the environment; main loads an optional .env file first.
type Config struct {
	Stage string

	// Algod node access.
	AlgodURL   string
	AlgodToken string

	// HTTP surface.
	HTTPAddr string

	// Ledger signing bridge. Empty disables hardware signing.
	LedgerBridgeURL string

	// Kafka event publishing. Empty broker list disables publishing.
	KafkaBrokers []string
	KafkaTopic   string

	// Name service lookups.
	NFDAPIBaseURL string
}

// Load reads configuration from the environment, failing fast on required
// values.
func Load() (*Config, error) {
	algodURL := os.Getenv("ALGOD_URL")
	if algodURL == "" {
		return nil, fmt.Errorf("ALGOD_URL environment variable is required")
	}

	cfg := &Config{
		Stage:           getEnvWithDefault("STAGE", "development"),
		AlgodURL:        algodURL,
		AlgodToken:      os.Getenv("ALGOD_TOKEN"),
		HTTPAddr:        getEnvWithDefault("HTTP_ADDR", ":8000"),
		LedgerBridgeURL: os.Getenv("LEDGER_BRIDGE_URL"),
		KafkaTopic:      getEnvWithDefault("KAFKA_TOPIC", "wallet-transaction-events"),
		NFDAPIBaseURL:   getEnvWithDefault("NFD_API_URL", "https://api.nf.domains"),
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	return cfg, nil
}

// getEnvWithDefault returns environment variable value or default
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

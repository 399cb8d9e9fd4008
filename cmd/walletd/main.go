package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/perawallet/pera-wallet-core/internal/config"
	"github.com/perawallet/pera-wallet-core/internal/logger"
	"github.com/perawallet/pera-wallet-core/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		// Fine in production where variables come from the environment.
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.InitLogger(cfg.Stage)
	defer logger.Sync()

	if err := server.InitializeHandlers(cfg); err != nil {
		logger.Fatal("Failed to initialize handlers: " + err.Error())
	}

	r := gin.Default()
	server.InitializeRoutes(r)

	log.Printf("Server starting on %s", cfg.HTTPAddr)
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("Error starting server: %v", err)
	}
}

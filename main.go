package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"orderdesk/cmd"
	"orderdesk/internal/config"
	"orderdesk/internal/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Printf("Warning: Could not load configuration, using defaults: %v", err)
		cfg = config.Default()
	}
	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	log := logger.WithComponent("main")
	log.Debug().Str("api_url", cfg.APIURL).Msg("Starting orderdesk")

	cmd.Execute(cfg)

	log.Debug().Msg("Orderdesk shutdown")
	os.Exit(0)
}

package main

import (
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"SentiPull/internal/di"
	"SentiPull/pkg/config"
)

func main() {
	// Credentials usually live in .env during development; absence is fine.
	_ = godotenv.Load()

	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s backend=%s tickers=%v", cfg.Environment, cfg.Backend.Type, cfg.Collector.Tickers)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Blocks until SIGINT or SIGTERM.
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}

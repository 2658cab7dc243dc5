package main

import (
	"errors"
	"log"

	"github.com/Abdulrahman-Hijazy/Currency-Conversion-API-Task/internal/app"
	"github.com/Abdulrahman-Hijazy/Currency-Conversion-API-Task/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrMissingBaseURL) {
			log.Fatalf("[ERROR] %v! Check your .env file.", err)
		}
		log.Fatalf("Failed to load configuration: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("Failed: %v", err)
	}
}

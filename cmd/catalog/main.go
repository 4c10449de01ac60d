package main

import (
	"log"

	"github.com/shestoi/GoBigTech/cart/internal/app"
	"github.com/shestoi/GoBigTech/cart/internal/config"
)

// catalog - stub Catalog Service для локальной разработки витрины
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application, err := app.BuildCatalog(cfg)
	if err != nil {
		log.Fatalf("Failed to build catalog: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("Service error: %v", err)
	}
}

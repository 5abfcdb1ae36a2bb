package main

import (
	"context"
	"log"

	"claimdocs-backend/internal/bootstrap"
	"claimdocs-backend/internal/shared/config"
	"claimdocs-backend/internal/shared/server"
)

func main() {
	cfg := config.Load()

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	app.StartWorkers(ctx)

	addr := server.Addr(cfg.Port)
	log.Printf("Starting API server on %s", addr)

	if err := app.Router.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

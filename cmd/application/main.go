package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"chatsales_api/config"
	"chatsales_api/internal/sales/app"
	"chatsales_api/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration")
	flag.Parse()

	config.LoadEnv()
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Printf("Config %s not loaded (%v), using defaults", *configPath, err)
		cfg = config.Default()
	}
	config.ApplyEnv(cfg)

	baseLog := logger.NewLogger(os.Stdout, "[ChatSales]")
	baseLog.Log("Started app")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := app.NewSalesServer(cfg, baseLog)
	if err := server.Init(ctx); err != nil {
		log.Fatalf("Failed to start sales service: %v", err)
	}
	defer server.Close()

	if err := server.Run(ctx); err != nil {
		baseLog.Log("Sales service stopped with error: %v", err)
	}
}

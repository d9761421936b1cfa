package main

import (
	"context"
	"log"
	"os"

	"chatsales_api/config"
	"chatsales_api/internal/sales/app"
	"chatsales_api/internal/sales/app/web/handlers"
	"chatsales_api/pkg/logger"

	"github.com/aws/aws-lambda-go/lambda"
)

func main() {
	cfg := config.Default()
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			log.Fatalf("Failed to load config %s: %v", path, err)
		}
		cfg = loaded
	}
	config.ApplyEnv(cfg)

	baseLog := logger.NewLogger(os.Stdout, "[ChatSalesLambda]")
	server := app.NewSalesServer(cfg, baseLog)
	if err := server.Init(context.Background()); err != nil {
		log.Fatalf("Failed to init sales service: %v", err)
	}

	h := handlers.NewLambdaHandler(server.Responder(), cfg.Auth.JWTSecret, baseLog.WithPrefix("[API]"))
	lambda.Start(h.Handle)
}

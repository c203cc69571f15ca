package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/shoplane-labs/push-dispatch/internal/config"
	"github.com/shoplane-labs/push-dispatch/internal/gateway"
	"github.com/shoplane-labs/push-dispatch/internal/server"
	"github.com/shoplane-labs/push-dispatch/internal/service"
	"github.com/shoplane-labs/push-dispatch/internal/storage/bolt"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	gwClient, err := gateway.New(gateway.Config{
		BaseURL: cfg.Gateway.BaseURL,
		AppID:   cfg.Gateway.AppID,
		APIKey:  cfg.Gateway.APIKey,
		Timeout: cfg.Gateway.RequestTimeout,
	})
	if err != nil {
		log.Fatalf("init gateway client: %v", err)
	}

	store, err := bolt.New(cfg.Storage.Path)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer store.Close()

	subsSvc := service.NewSubscriptionService(store)
	userSvc := service.NewUserService(store, subsSvc, cfg)
	notifSvc := service.NewNotificationService(store, gwClient, subsSvc)

	srv := server.New(cfg, notifSvc, userSvc, subsSvc)

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("server stopped: %v", err)
		}
	}()

	// graceful shutdown
	waitForSignal()
	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.WriteTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func waitForSignal() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
}

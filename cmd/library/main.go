package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"libraryapp/pkg/api"
	"libraryapp/pkg/app"
	"libraryapp/pkg/config"
	"libraryapp/pkg/scanner"
)

func main() {
	log.Println("Starting library service...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		scanner.New(a.Service, a.Clock, cfg.ScanInterval, log.Default()).Run(ctx)
	}()
	go func() {
		defer wg.Done()
		a.Notifier.Run(ctx, cfg.Notify.RetryInterval)
	}()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(a.Service, a.Store),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("Library service starting on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down library service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
	wg.Wait()

	if n := a.Notifier.Pending(); n > 0 {
		log.Printf("%d notification(s) were still waiting for redelivery", n)
	}
	log.Println("Library service stopped")
}

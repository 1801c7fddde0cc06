// Package app assembles the library service from its configuration.
package app

import (
	"fmt"
	"log"
	"net/http"

	"gorm.io/gorm"

	"libraryapp/pkg/circuitbreaker"
	"libraryapp/pkg/clock"
	"libraryapp/pkg/config"
	"libraryapp/pkg/database"
	"libraryapp/pkg/lifecycle"
	"libraryapp/pkg/notify"
	"libraryapp/pkg/store"
)

type App struct {
	Config   config.Config
	DB       *gorm.DB
	Store    *store.Store
	Clock    clock.Clock
	Notifier *notify.RetryingNotifier
	Service  *lifecycle.Service
}

// New opens the database and wires the engine with its notifier chain.
func New(cfg config.Config) (*App, error) {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}

	clk := clock.NewSystem()
	st := store.New(db)
	notifier := notify.NewRetryingNotifier(deliveryNotifier(cfg.Notify), clk,
		notify.WithBackoff(cfg.Notify.RetryInterval),
		notify.WithMaxAttempts(cfg.Notify.MaxAttempts),
	)
	svc := lifecycle.NewService(st, notifier, clk,
		lifecycle.WithLoanPeriod(cfg.LoanPeriod),
		lifecycle.WithNotifyConcurrency(cfg.Notify.Concurrency),
	)

	return &App{
		Config:   cfg,
		DB:       db,
		Store:    st,
		Clock:    clk,
		Notifier: notifier,
		Service:  svc,
	}, nil
}

// Close releases the database connections.
func (a *App) Close() error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return fmt.Errorf("get database instance: %w", err)
	}
	return sqlDB.Close()
}

func deliveryNotifier(cfg config.Notify) notify.Notifier {
	if cfg.WebhookURL == "" {
		log.Println("NOTIFY_WEBHOOK_URL not set, notifications are written to the log")
		return notify.NewLogNotifier(log.Default())
	}
	log.Printf("Notifications are posted to %s", cfg.WebhookURL)
	breaker := circuitbreaker.NewCircuitBreaker(cfg.BreakerMaxFailures, cfg.BreakerTimeout)
	return notify.NewWebhookNotifier(cfg.WebhookURL, &http.Client{Timeout: cfg.Timeout}, breaker)
}

// Package main provides the LINE bot server entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/garyellow/whattoeat-linebot/internal/app"
	"github.com/garyellow/whattoeat-linebot/internal/config"
)

// initTimeout bounds startup work such as opening the database and
// creating the classifier clients.
const initTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "whattoeat-linebot: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	application, err := app.Initialize(ctx, cfg)
	cancel()
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	return application.Run()
}

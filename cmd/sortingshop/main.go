// Package main provides the entry point for sortingshop.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/randomchars42/Sortingshop/internal/config"
	"github.com/randomchars42/Sortingshop/internal/console"
	"github.com/randomchars42/Sortingshop/internal/di"
	"github.com/randomchars42/Sortingshop/internal/logger"
	"github.com/randomchars42/Sortingshop/internal/service"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "sortingshop: %v\n", err)
		return 2
	}

	// Create DI container
	injector := di.NewContainer(cfg)

	// Bootstrap all services
	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start session: %v\n", err)
		_ = injector.Shutdown()
		return 1
	}

	log := do.MustInvoke[*logger.Logger](injector)
	shop := do.MustInvoke[*service.Shop](injector)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Server.Enabled {
		// Wait for shutdown signal
		<-ctx.Done()
		log.Info("Shutting down server gracefully...")
		shop.Finalize(context.Background())
	} else {
		c := console.New(shop, os.Stdin, os.Stdout, log.Component("console"))
		if err := c.Run(ctx); err != nil {
			log.WithError(err).Error("Console error")
		}
	}

	// The DI container handles shutdown order automatically
	if report := injector.Shutdown(); report != nil && !report.Succeed {
		log.WithError(report).Error("Shutdown error")
	}

	log.WithField("session", shop.SessionID()).Info("Session closed")
	return 0
}

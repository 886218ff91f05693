// Package di provides dependency injection configuration for sortingshop.
package di

import (
	"github.com/samber/do/v2"

	"github.com/randomchars42/Sortingshop/internal/config"
	"github.com/randomchars42/Sortingshop/internal/di/providers"
	"github.com/randomchars42/Sortingshop/internal/logger"
	"github.com/randomchars42/Sortingshop/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
// The configuration is loaded by the caller so usage errors can be reported
// before anything starts.
func NewContainer(cfg *config.Config) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, cfg)
	do.Provide(injector, providers.ProvideLogger)

	// Metadata layer
	do.Provide(injector, providers.ProvideExiftool)
	do.Provide(injector, providers.ProvideMetadataStore)
	do.Provide(injector, providers.ProvideTagsets)

	// Session
	do.Provide(injector, providers.ProvideScanResult)
	do.Provide(injector, providers.ProvidePreparer)
	do.Provide(injector, providers.ProvideSorter)
	do.Provide(injector, providers.ProvideSession)
	do.Provide(injector, providers.ProvideShop)

	// Workers
	do.Provide(injector, providers.ProvideTagsetWatcher)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services. The HTTP server is only started when
// enabled in the configuration.
func Bootstrap(injector *do.RootScope) error {
	cfg, err := do.Invoke[*config.Config](injector)
	if err != nil {
		return err
	}
	if _, err := do.Invoke[*logger.Logger](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*service.Shop](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.TagsetWatcherHandle](injector); err != nil {
		return err
	}

	if cfg.Server.Enabled {
		if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
			return err
		}
	}
	return nil
}

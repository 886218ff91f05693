// Package providers contains dependency injection providers for sortingshop.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/randomchars42/Sortingshop/internal/config"
	"github.com/randomchars42/Sortingshop/internal/logger"
)

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting sortingshop",
		"environment", cfg.App.Environment,
		"log_level", cfg.App.LogLevel,
		"working_dir", cfg.Paths.WorkingDir,
		"target_dir", cfg.Sorting.TargetDir,
	)

	return log, nil
}

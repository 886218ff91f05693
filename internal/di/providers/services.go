package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/randomchars42/Sortingshop/internal/config"
	"github.com/randomchars42/Sortingshop/internal/id"
	"github.com/randomchars42/Sortingshop/internal/logger"
	"github.com/randomchars42/Sortingshop/internal/metadata"
	"github.com/randomchars42/Sortingshop/internal/prepare"
	"github.com/randomchars42/Sortingshop/internal/scanner"
	"github.com/randomchars42/Sortingshop/internal/service"
	"github.com/randomchars42/Sortingshop/internal/session"
	"github.com/randomchars42/Sortingshop/internal/sorter"
	"github.com/randomchars42/Sortingshop/internal/tagset"
)

// ProvideScanResult enumerates the working directory once at startup.
func ProvideScanResult(i do.Injector) (*scanner.Result, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	s := scanner.New(cfg.Paths.MediaExtensions, log.Component("scanner"))
	return s.Scan(context.Background(), cfg.Paths.WorkingDir)
}

// ProvidePreparer provides the preparation engine.
func ProvidePreparer(i do.Injector) (*prepare.Engine, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	store := do.MustInvoke[*metadata.Store](i)
	sets := do.MustInvoke[*tagset.Tagsets](i)

	return prepare.NewEngine(prepare.NewPolicy(cfg), store, sets, log.Component("prepare")), nil
}

// ProvideSorter provides the sort engine.
func ProvideSorter(i do.Injector) (*sorter.Engine, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	store := do.MustInvoke[*metadata.Store](i)

	rule, err := sorter.NewRule(cfg.Sorting.SortingField, cfg.Sorting.SortingTagRegex, cfg.Sorting.SortingTagSub)
	if err != nil {
		return nil, err
	}
	return sorter.NewEngine(rule, cfg.Sorting.TargetDir, store.Backend(), cfg.Renaming.CounterLength, cfg.Renaming.NameHasCounter, log.Component("sorter")), nil
}

// ProvideSession provides the interactive session over the scanned files.
func ProvideSession(i do.Injector) (*session.Session, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	result := do.MustInvoke[*scanner.Result](i)

	sessionID, err := id.Generate(id.PrefixSession)
	if err != nil {
		return nil, err
	}

	sess := session.New(sessionID, cfg.Paths.WorkingDir, result.Files, session.Deps{
		Store:    do.MustInvoke[*metadata.Store](i),
		Preparer: do.MustInvoke[*prepare.Engine](i),
		Tagsets:  do.MustInvoke[*tagset.Tagsets](i),
		Logger:   log.Component("session").With("session", sessionID),
	})

	log.Info("Session started",
		"session", sessionID,
		"files", len(result.Files),
		"orphans", len(result.Orphans),
		"inaccessible", len(result.Inaccessible),
	)
	return sess, nil
}

// ProvideShop provides the service shared by the console and the HTTP surface.
func ProvideShop(i do.Injector) (*service.Shop, error) {
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewShop(
		do.MustInvoke[*session.Session](i),
		do.MustInvoke[*prepare.Engine](i),
		do.MustInvoke[*sorter.Engine](i),
		log.Component("service"),
	), nil
}

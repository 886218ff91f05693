package providers

import (
	"github.com/samber/do/v2"

	"github.com/randomchars42/Sortingshop/internal/config"
	"github.com/randomchars42/Sortingshop/internal/exiftool"
	"github.com/randomchars42/Sortingshop/internal/logger"
	"github.com/randomchars42/Sortingshop/internal/metadata"
	"github.com/randomchars42/Sortingshop/internal/tagset"
)

// ExiftoolHandle wraps the exiftool backend with Shutdownable.
type ExiftoolHandle struct {
	*exiftool.Backend
}

// Shutdown implements do.Shutdownable.
func (h *ExiftoolHandle) Shutdown() error {
	return h.Close()
}

// ProvideExiftool provides the metadata backend. The exiftool process is
// started on first use.
func ProvideExiftool(i do.Injector) (*ExiftoolHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	backend := exiftool.New(cfg.Exiftool.Binary, cfg.Exiftool.Timeout, log.Component("exiftool"))
	return &ExiftoolHandle{Backend: backend}, nil
}

// ProvideMetadataStore provides the record store on top of the backend.
func ProvideMetadataStore(i do.Injector) (*metadata.Store, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	handle := do.MustInvoke[*ExiftoolHandle](i)

	return metadata.NewStore(handle.Backend, cfg.Metadata.FieldTags, log.Component("metadata")), nil
}

// ProvideTagsets loads the global and the working directory's tagsets.
// Problems with either file are logged and never fatal.
func ProvideTagsets(i do.Injector) (*tagset.Tagsets, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	sets, _ := tagset.Resolve(cfg.Paths.Tagsets, tagset.LocalPath(cfg.Paths.WorkingDir), log.Component("tagset"))
	return sets, nil
}

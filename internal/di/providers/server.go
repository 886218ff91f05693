package providers

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/randomchars42/Sortingshop/internal/api"
	"github.com/randomchars42/Sortingshop/internal/config"
	domainerrors "github.com/randomchars42/Sortingshop/internal/errors"
	"github.com/randomchars42/Sortingshop/internal/logger"
	"github.com/randomchars42/Sortingshop/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP control surface. The listener is opened
// before returning so an unusable address fails startup.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	shop := do.MustInvoke[*service.Shop](i)

	handler := api.NewServer(shop, api.Options{AllowedOrigins: cfg.Server.AllowedOrigins}, log.Component("http"))

	srv := &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return nil, domainerrors.Wrapf(err, domainerrors.CodeConfig, "listen on %s", srv.Addr)
	}

	// Start in background
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", ln.Addr().String(), "session", shop.SessionID())

	return &HTTPServerHandle{Server: srv}, nil
}

// Package api provides the HTTP control surface of a sortingshop session.
package api

import (
	"log/slog"
	"net/http"
	"path"
	"reflect"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/randomchars42/Sortingshop/internal/service"
)

const modulePath = "github.com/randomchars42/Sortingshop"

// Version is reported in the generated OpenAPI document.
const Version = "1.0.0"

// Options configures the server.
type Options struct {
	// AllowedOrigins enables CORS for the listed origins. Empty disables CORS.
	AllowedOrigins []string
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	shop   *service.Shop
	router *chi.Mux
	api    huma.API
	logger *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(shop *service.Shop, opts Options, logger *slog.Logger) *Server {
	s := &Server{
		shop:   shop,
		router: chi.NewRouter(),
		logger: logger,
	}

	s.setupMiddleware(opts)

	config := huma.DefaultConfig("Sortingshop API", Version)
	config.Components.Schemas = huma.NewMapRegistry("#/components/schemas/", schemaNamer)
	s.api = humachi.New(s.router, config)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerSessionRoutes()
	s.registerBatchRoutes()
	s.registerTagsetRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// schemaNamer prefixes schema names of types from other packages of this
// module with their package name, so prepare.Failure and session.Failure
// become PrepareFailure and SessionFailure.
func schemaNamer(t reflect.Type, hint string) string {
	name := huma.DefaultSchemaNamer(t, hint)

	base := t
	for base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	pkgPath := base.PkgPath()
	if base.Name() == "" || !strings.HasPrefix(pkgPath, modulePath+"/") {
		return name
	}

	pkg := path.Base(pkgPath)
	if pkg == "api" {
		return name
	}
	return strings.ToUpper(pkg[:1]) + pkg[1:] + name
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware(opts Options) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(s.logger.Handler(), slog.LevelDebug),
		NoColor: true,
	}))
	s.router.Use(middleware.Recoverer)

	if len(opts.AllowedOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}
}

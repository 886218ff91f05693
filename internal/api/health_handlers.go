package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/randomchars42/Sortingshop/internal/service"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server status and a summary of the session's files",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status  string          `json:"status" doc:"Overall status"`
	Session service.Summary `json:"session" doc:"File counts of the session"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(_ context.Context, _ *struct{}) (*HealthOutput, error) {
	return &HealthOutput{
		Body: HealthResponse{
			Status:  "healthy",
			Session: s.shop.Summary(),
		},
	}, nil
}

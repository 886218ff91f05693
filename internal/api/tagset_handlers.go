package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/randomchars42/Sortingshop/internal/service"
)

func (s *Server) registerTagsetRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTagsets",
		Method:      http.MethodGet,
		Path:        "/api/v1/tagsets",
		Summary:     "List tagsets",
		Description: "Returns the tagset abbreviations the toggle command expands",
		Tags:        []string{"Tagsets"},
	}, s.handleListTagsets)
}

// TagsetListResponse lists the tagsets of the session.
type TagsetListResponse struct {
	Tagsets []service.Tagset `json:"tagsets" doc:"Tagsets ordered by abbreviation"`
}

// TagsetListOutput wraps the tagset list for Huma.
type TagsetListOutput struct {
	Body TagsetListResponse
}

func (s *Server) handleListTagsets(_ context.Context, _ *struct{}) (*TagsetListOutput, error) {
	return &TagsetListOutput{Body: TagsetListResponse{Tagsets: s.shop.Tagsets()}}, nil
}

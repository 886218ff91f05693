package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/randomchars42/Sortingshop/internal/prepare"
	"github.com/randomchars42/Sortingshop/internal/session"
	"github.com/randomchars42/Sortingshop/internal/sorter"
)

func (s *Server) registerBatchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "prepareFiles",
		Method:      http.MethodPost,
		Path:        "/api/v1/prepare",
		Summary:     "Prepare files",
		Description: "Renames files, creates sidecars and applies the default tagset. Failing files are reported, not fatal.",
		Tags:        []string{"Batch"},
	}, s.handlePrepare)

	huma.Register(s.api, huma.Operation{
		OperationID: "finalizeSession",
		Method:      http.MethodPost,
		Path:        "/api/v1/finalize",
		Summary:     "Apply deletion marks",
		Description: "Moves marked files into the deleted directory and restores unmarked ones",
		Tags:        []string{"Batch"},
	}, s.handleFinalize)

	huma.Register(s.api, huma.Operation{
		OperationID: "sortFiles",
		Method:      http.MethodPost,
		Path:        "/api/v1/sort",
		Summary:     "Sort files",
		Description: "Applies deletion marks, then moves prepared files into directories named after their sorting tag",
		Tags:        []string{"Batch"},
	}, s.handleSort)
}

// PrepareOutput wraps the preparation report for Huma.
type PrepareOutput struct {
	Body prepare.Report
}

// FinalizeOutput wraps the finalize report for Huma.
type FinalizeOutput struct {
	Body session.FinalizeReport
}

// SortResponse contains both steps of a sort run.
type SortResponse struct {
	Finalize session.FinalizeReport `json:"finalize" doc:"Deletion marks applied before sorting"`
	Sort     sorter.Report          `json:"sort" doc:"Files moved into sort directories"`
}

// SortOutput wraps the sort response for Huma.
type SortOutput struct {
	Body SortResponse
}

func (s *Server) handlePrepare(ctx context.Context, _ *struct{}) (*PrepareOutput, error) {
	return &PrepareOutput{Body: s.shop.Prepare(ctx)}, nil
}

func (s *Server) handleFinalize(ctx context.Context, _ *struct{}) (*FinalizeOutput, error) {
	return &FinalizeOutput{Body: s.shop.Finalize(ctx)}, nil
}

func (s *Server) handleSort(ctx context.Context, _ *struct{}) (*SortOutput, error) {
	finalized, sorted := s.shop.Sort(ctx)
	return &SortOutput{Body: SortResponse{Finalize: finalized, Sort: sorted}}, nil
}

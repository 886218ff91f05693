package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/randomchars42/Sortingshop/internal/command"
	"github.com/randomchars42/Sortingshop/internal/session"
)

func (s *Server) registerSessionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getSession",
		Method:      http.MethodGet,
		Path:        "/api/v1/session",
		Summary:     "Get active file",
		Description: "Returns the active file with the metadata of its active source",
		Tags:        []string{"Session"},
	}, s.handleGetSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "runCommand",
		Method:      http.MethodPost,
		Path:        "/api/v1/commands",
		Summary:     "Run command",
		Description: "Executes one command line, e.g. \"t we\" or \"n\", against the active file",
		Tags:        []string{"Session"},
	}, s.handleRunCommand)

	huma.Register(s.api, huma.Operation{
		OperationID: "listCommands",
		Method:      http.MethodGet,
		Path:        "/api/v1/commands",
		Summary:     "List commands",
		Description: "Returns the directives the command endpoint understands",
		Tags:        []string{"Session"},
	}, s.handleListCommands)
}

// FeedbackOutput contains the active file after an operation.
type FeedbackOutput struct {
	Body *session.Feedback
}

// CommandRequest is the request body for running a command.
type CommandRequest struct {
	Line string `json:"line" minLength:"1" maxLength:"4096" doc:"Command line"`
}

// RunCommandInput wraps the command request for Huma.
type RunCommandInput struct {
	Body CommandRequest
}

// CommandListResponse lists the available directives.
type CommandListResponse struct {
	Commands []command.HelpEntry `json:"commands" doc:"Available directives"`
}

// CommandListOutput wraps the command list for Huma.
type CommandListOutput struct {
	Body CommandListResponse
}

func (s *Server) handleGetSession(ctx context.Context, _ *struct{}) (*FeedbackOutput, error) {
	return &FeedbackOutput{Body: s.shop.State(ctx)}, nil
}

func (s *Server) handleRunCommand(ctx context.Context, input *RunCommandInput) (*FeedbackOutput, error) {
	fb, err := s.shop.Run(ctx, input.Body.Line)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &FeedbackOutput{Body: fb}, nil
}

func (s *Server) handleListCommands(_ context.Context, _ *struct{}) (*CommandListOutput, error) {
	return &CommandListOutput{Body: CommandListResponse{Commands: command.HelpEntries()}}, nil
}

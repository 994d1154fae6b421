package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"covrun/internal/application"
	"covrun/internal/domain"
)

// Version is set at build time.
var Version = "dev"

// Server wraps the application service with MCP protocol handling.
type Server struct {
	svc    Service
	config Config
}

// New creates an MCP server wrapping the given service.
func New(svc Service, cfg Config) *Server {
	if cfg.ConfigPath == "" {
		cfg.ConfigPath = DefaultConfig().ConfigPath
	}
	return &Server{svc: svc, config: cfg}
}

// Run starts the server over stdio and blocks until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	transport := &mcp.StdioTransport{}
	if err := s.newServer().Run(ctx, transport); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}

// newServer builds the protocol server. Tool and resource capabilities are
// advertised automatically once handlers are registered.
func (s *Server) newServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "covrun",
			Version: Version,
		},
		&mcp.ServerOptions{},
	)
	s.registerTools(server)
	s.registerResources(server)
	return server
}

func (s *Server) registerTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "run",
		Description: "Run the test suite with coverage instrumentation and return per-file coverage with missing line ranges. The HTML report is refreshed; no viewer is launched.",
	}, s.handleRun)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "report",
		Description: "Analyze an existing coverage profile without running tests. Use this when a coverage.out file is already present.",
	}, s.handleReport)
}

func (s *Server) registerResources(server *mcp.Server) {
	server.AddResource(&mcp.Resource{
		URI:         "covrun://config",
		Name:        "Current Configuration",
		Description: "Returns the effective covrun configuration (file or defaults)",
		MIMEType:    "application/json",
	}, s.handleConfigResource)
}

// handleRun implements the run tool.
func (s *Server) handleRun(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input RunInput,
) (*mcp.CallToolResult, ToolOutput, error) {
	summary, err := s.svc.RunResult(ctx, application.RunOptions{
		ConfigPath: coalesce(input.ConfigPath, s.config.ConfigPath),
		Args:       input.Args,
		NoOpen:     true,
	})
	return nil, toolOutput(summary, err), nil
}

// handleReport implements the report tool.
func (s *Server) handleReport(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ReportInput,
) (*mcp.CallToolResult, ToolOutput, error) {
	summary, err := s.svc.ReportResult(ctx, application.ReportOptions{
		ConfigPath: coalesce(input.ConfigPath, s.config.ConfigPath),
		Profile:    input.Profile,
	})
	return nil, toolOutput(summary, err), nil
}

// handleConfigResource returns the effective configuration.
func (s *Server) handleConfigResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	cfg, err := s.svc.Detect(ctx, s.config.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal configuration: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

func toolOutput(summary domain.Summary, err error) ToolOutput {
	output := ToolOutput{
		Passed:     err == nil,
		Coverage:   summary.Percent(),
		Statements: summary.Statements(),
		Missed:     summary.Missed(),
	}
	for _, f := range summary.Files {
		output.Files = append(output.Files, FileOutput{
			File:       f.File,
			Statements: f.Statements(),
			Missed:     f.Missed(),
			Coverage:   f.Percent(),
			Missing:    domain.FormatRanges(f.MissingRanges()),
		})
	}
	if err != nil {
		output.Error = err.Error()
		output.Summary = fmt.Sprintf("FAIL | %s", err.Error())
		return output
	}
	output.Summary = fmt.Sprintf("PASS | %.1f%% coverage | %d/%d statements covered",
		output.Coverage, output.Statements-output.Missed, output.Statements)
	return output
}

func coalesce(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

// Package mcp exposes the run pipeline over the Model Context Protocol so
// agents can drive coverage runs and read the results.
package mcp

import (
	"context"

	"covrun/internal/application"
	"covrun/internal/domain"
)

// Service defines the application operations the MCP surface needs.
type Service interface {
	RunResult(ctx context.Context, opts application.RunOptions) (domain.Summary, error)
	ReportResult(ctx context.Context, opts application.ReportOptions) (domain.Summary, error)
	Detect(ctx context.Context, configPath string) (application.Config, error)
}

// Config holds MCP server configuration.
type Config struct {
	ConfigPath string // Path to .covrun.yaml (default: ".covrun.yaml")
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() Config {
	return Config{ConfigPath: ".covrun.yaml"}
}

// RunInput is the run tool's input schema.
type RunInput struct {
	ConfigPath string   `json:"configPath,omitempty" jsonschema:"Path to .covrun.yaml config file"`
	Args       []string `json:"args,omitempty" jsonschema:"Extra arguments forwarded verbatim to the test run"`
}

// ReportInput is the report tool's input schema.
type ReportInput struct {
	ConfigPath string `json:"configPath,omitempty" jsonschema:"Path to .covrun.yaml config file"`
	Profile    string `json:"profile,omitempty" jsonschema:"Path to existing coverage profile"`
}

// FileOutput is one file's coverage in a tool result.
type FileOutput struct {
	File       string  `json:"file"`
	Statements int     `json:"statements"`
	Missed     int     `json:"missed"`
	Coverage   float64 `json:"coverage"`
	Missing    string  `json:"missing,omitempty"`
}

// ToolOutput is the structured result of the run and report tools.
type ToolOutput struct {
	Passed     bool         `json:"passed"`
	Coverage   float64      `json:"coverage"`
	Statements int          `json:"statements"`
	Missed     int          `json:"missed"`
	Files      []FileOutput `json:"files,omitempty"`
	Summary    string       `json:"summary"`
	Error      string       `json:"error,omitempty"`
}

package application

import (
	"context"
	"fmt"
	"io"

	"covrun/internal/domain"
)

// Config drives one coverage run. It mirrors .covrun.yaml.
type Config struct {
	// Packages to instrument and test.
	Packages []string
	// Mode is the covermode passed to the test tool.
	Mode string
	// ReportDir receives the HTML report; index.html is the entry page.
	ReportDir string
	// Profile is the coverage profile path the test tool writes.
	Profile string
	// Open controls the best-effort viewer launch after a successful run.
	Open bool
	// Args are default test arguments; caller arguments are appended after them.
	Args []string
}

// DefaultConfig returns the configuration used when no .covrun.yaml exists.
func DefaultConfig() Config {
	return Config{
		Packages:  []string{"./..."},
		Mode:      "count",
		ReportDir: ".cover/html",
		Profile:   ".cover/coverage.out",
		Open:      true,
	}
}

// ExitError carries the delegated test run's exact exit status. The CLI exits
// with Code verbatim, never a remapped value.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// ConfigError marks a failure to read or parse the configuration file, so
// the CLI can distinguish it from pipeline failures.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return e.Err.Error() }

func (e *ConfigError) Unwrap() error { return e.Err }

// RunRequest is what the coverage runner receives. Args are forwarded to the
// test tool verbatim, after the fixed coverage options.
type RunRequest struct {
	Packages []string
	Mode     string
	Profile  string
	Args     []string
}

// RunOptions configures the full run pipeline.
type RunOptions struct {
	ConfigPath string
	Args       []string
	// NoOpen suppresses the viewer launch; watch re-runs set it.
	NoOpen bool
}

// ReportOptions configures re-rendering from an existing profile.
type ReportOptions struct {
	ConfigPath string
	Profile    string
}

// WatchCallback observes each watch-mode run.
type WatchCallback func(run int, err error)

type ConfigLoader interface {
	Exists(path string) (bool, error)
	Load(path string) (Config, error)
}

type CoverageRunner interface {
	Run(ctx context.Context, req RunRequest) (string, error)
}

type ModuleInfo interface {
	ModuleRoot(ctx context.Context) (string, error)
	ModulePath(ctx context.Context) (string, error)
}

type ProfileParser interface {
	Parse(path string) (domain.Summary, error)
}

// SummaryWriter renders the terminal missing-lines table.
type SummaryWriter interface {
	WriteSummary(w io.Writer, summary domain.Summary) error
}

// ReportWriter renders the HTML report and returns the index page path.
type ReportWriter interface {
	WriteReport(dir string, summary domain.Summary) (string, error)
}

// Opener launches the host's default viewer for a file.
type Opener interface {
	Open(path string) error
}

// FileWatcher emits a signal when watched source files change.
type FileWatcher interface {
	WatchDir(root string) error
	Events(ctx context.Context) <-chan struct{}
}

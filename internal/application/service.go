package application

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"covrun/internal/domain"
)

// Service orchestrates the run pipeline: delegated test run, profile parsing,
// terminal summary, HTML report, best-effort viewer launch.
type Service struct {
	ConfigLoader ConfigLoader
	Runner       CoverageRunner
	Module       ModuleInfo
	Parser       ProfileParser
	Terminal     SummaryWriter
	HTML         ReportWriter
	Opener       Opener
	Out          io.Writer
}

// Run executes the full pipeline. A non-zero test run surfaces as *ExitError
// and nothing after the run happens: no summary, no report, no viewer.
func (s *Service) Run(ctx context.Context, opts RunOptions) error {
	_, err := s.RunResult(ctx, opts)
	return err
}

// RunResult is Run plus the parsed summary, for callers that consume the
// coverage data directly.
func (s *Service) RunResult(ctx context.Context, opts RunOptions) (domain.Summary, error) {
	cfg, err := s.loadConfig(opts.ConfigPath)
	if err != nil {
		return domain.Summary{}, err
	}

	fmt.Fprintln(s.Out, "Running tests with coverage...")

	args := append(append([]string(nil), cfg.Args...), opts.Args...)
	profile, err := s.Runner.Run(ctx, RunRequest{
		Packages: cfg.Packages,
		Mode:     cfg.Mode,
		Profile:  cfg.Profile,
		Args:     args,
	})
	if err != nil {
		return domain.Summary{}, err
	}

	summary, index, err := s.render(ctx, cfg, profile)
	if err != nil {
		return domain.Summary{}, err
	}

	fmt.Fprintf(s.Out, "\nHTML report written to %s\n", index)

	if cfg.Open && !opts.NoOpen {
		// Best effort. A missing opener or headless host must not change
		// the run's outcome.
		_ = s.Opener.Open(index)
	}
	return summary, nil
}

// Report re-renders the summary and HTML report from an existing profile
// without running tests and without launching the viewer.
func (s *Service) Report(ctx context.Context, opts ReportOptions) error {
	_, err := s.ReportResult(ctx, opts)
	return err
}

// ReportResult is Report plus the parsed summary.
func (s *Service) ReportResult(ctx context.Context, opts ReportOptions) (domain.Summary, error) {
	cfg, err := s.loadConfig(opts.ConfigPath)
	if err != nil {
		return domain.Summary{}, err
	}
	profile := opts.Profile
	if profile == "" {
		profile = cfg.Profile
	}
	if !filepath.IsAbs(profile) {
		root, err := s.Module.ModuleRoot(ctx)
		if err != nil {
			return domain.Summary{}, err
		}
		profile = filepath.Join(root, profile)
	}

	summary, index, err := s.render(ctx, cfg, profile)
	if err != nil {
		return domain.Summary{}, err
	}
	fmt.Fprintf(s.Out, "\nHTML report written to %s\n", index)
	return summary, nil
}

// Watch runs the pipeline, then re-runs it whenever watched files change.
// The viewer opens only after the first successful run; failing runs keep the
// loop alive.
func (s *Service) Watch(ctx context.Context, opts RunOptions, watcher FileWatcher, callback WatchCallback) error {
	root, err := s.Module.ModuleRoot(ctx)
	if err != nil {
		return err
	}
	if err := watcher.WatchDir(root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}

	run := 1
	runErr := s.Run(ctx, opts)
	if callback != nil {
		callback(run, runErr)
	}
	if runErr == nil {
		opts.NoOpen = true
	}

	events := watcher.Events(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-events:
			if !ok {
				return nil
			}
			run++
			runErr := s.Run(ctx, opts)
			if callback != nil {
				callback(run, runErr)
			}
			if runErr == nil {
				opts.NoOpen = true
			}
		}
	}
}

// Detect returns the effective configuration: the config file when present,
// the defaults otherwise.
func (s *Service) Detect(ctx context.Context, configPath string) (Config, error) {
	return s.loadConfig(configPath)
}

func (s *Service) loadConfig(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	exists, err := s.ConfigLoader.Exists(path)
	if err != nil {
		return Config{}, &ConfigError{Err: err}
	}
	if !exists {
		return DefaultConfig(), nil
	}
	cfg, err := s.ConfigLoader.Load(path)
	if err != nil {
		return Config{}, &ConfigError{Err: err}
	}
	return cfg, nil
}

func (s *Service) render(ctx context.Context, cfg Config, profile string) (domain.Summary, string, error) {
	summary, err := s.Parser.Parse(profile)
	if err != nil {
		return domain.Summary{}, "", err
	}
	summary = s.relativize(ctx, summary)

	if err := s.Terminal.WriteSummary(s.Out, summary); err != nil {
		return domain.Summary{}, "", err
	}

	reportDir := cfg.ReportDir
	if !filepath.IsAbs(reportDir) {
		root, err := s.Module.ModuleRoot(ctx)
		if err != nil {
			return domain.Summary{}, "", err
		}
		reportDir = filepath.Join(root, reportDir)
	}
	index, err := s.HTML.WriteReport(reportDir, summary)
	if err != nil {
		return domain.Summary{}, "", err
	}
	return summary, index, nil
}

// relativize trims the module path prefix from profile file names so reports
// show internal/foo/bar.go instead of the import path.
func (s *Service) relativize(ctx context.Context, summary domain.Summary) domain.Summary {
	modulePath, err := s.Module.ModulePath(ctx)
	if err != nil || modulePath == "" {
		return summary
	}
	prefix := modulePath + "/"
	for i, f := range summary.Files {
		summary.Files[i].File = strings.TrimPrefix(f.File, prefix)
	}
	return summary
}

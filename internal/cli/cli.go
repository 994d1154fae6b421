// Package cli wires the subcommands and owns exit-code plumbing. The bare
// invocation is an argument-forwarding contract: everything the caller passes
// goes to the test run verbatim, and the run's exit status comes back
// unchanged.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"covrun/internal/application"
	"covrun/internal/domain"
	"covrun/internal/infrastructure/browser"
	"covrun/internal/infrastructure/config"
	"covrun/internal/infrastructure/coverprofile"
	"covrun/internal/infrastructure/gotool"
	"covrun/internal/infrastructure/report"
	"covrun/internal/infrastructure/watcher"
	"covrun/internal/infrastructure/wizard"
	mcpserver "covrun/internal/mcp"
)

const defaultConfigPath = ".covrun.yaml"

type Service interface {
	Run(ctx context.Context, opts application.RunOptions) error
	RunResult(ctx context.Context, opts application.RunOptions) (domain.Summary, error)
	Report(ctx context.Context, opts application.ReportOptions) error
	ReportResult(ctx context.Context, opts application.ReportOptions) (domain.Summary, error)
	Watch(ctx context.Context, opts application.RunOptions, watcher application.FileWatcher, callback application.WatchCallback) error
	Detect(ctx context.Context, configPath string) (application.Config, error)
}

var initWizard = wizard.Run

func Run(args []string, stdout, stderr io.Writer, svc Service) int {
	ctx := context.Background()

	if len(args) < 2 {
		return doRun(ctx, svc, stderr, nil)
	}

	switch args[1] {
	case "run":
		return doRun(ctx, svc, stderr, args[2:])
	case "report":
		fs := flag.NewFlagSet("report", flag.ExitOnError)
		configPath := fs.String("config", defaultConfigPath, "Config file path")
		profile := fs.String("profile", "", "Coverage profile path (default from config)")
		_ = fs.Parse(args[2:])
		err := svc.Report(ctx, application.ReportOptions{ConfigPath: *configPath, Profile: *profile})
		return exitCode(err, 3, stderr)
	case "watch":
		return runWatch(ctx, stdout, stderr, svc, args[2:])
	case "init":
		fs := flag.NewFlagSet("init", flag.ExitOnError)
		configPath := fs.String("config", defaultConfigPath, "Config file path")
		force := fs.Bool("force", false, "Overwrite existing config file")
		noInteractive := fs.Bool("no-interactive", false, "Skip the interactive wizard")
		_ = fs.Parse(args[2:])
		cfg, err := svc.Detect(ctx, *configPath)
		if err != nil {
			return exitCode(err, 3, stderr)
		}
		if !*noInteractive {
			var confirmed bool
			cfg, confirmed, err = initWizard(cfg, stdout, os.Stdin)
			if err != nil {
				return exitCode(err, 3, stderr)
			}
			if !confirmed {
				fmt.Fprintln(stdout, "Init cancelled; no configuration written.")
				return 0
			}
		}
		if err := writeConfigFile(*configPath, cfg, stdout, *force); err != nil {
			return exitCode(err, 2, stderr)
		}
		return 0
	case "mcp":
		fs := flag.NewFlagSet("mcp", flag.ExitOnError)
		configPath := fs.String("config", defaultConfigPath, "Config file path")
		_ = fs.Parse(args[2:])
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		server := mcpserver.New(svc, mcpserver.Config{ConfigPath: *configPath})
		if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return exitCode(err, 3, stderr)
		}
		return 0
	case "version":
		fmt.Fprintf(stdout, "covrun %s (commit %s, built %s)\n", Version, Commit, Date)
		return 0
	case "help", "-h", "--help":
		usage(stdout)
		return 0
	default:
		// Not a subcommand: treat everything from args[1] on as test
		// arguments and forward them untouched.
		return doRun(ctx, svc, stderr, args[1:])
	}
}

func doRun(ctx context.Context, svc Service, stderr io.Writer, testArgs []string) int {
	err := svc.Run(ctx, application.RunOptions{ConfigPath: defaultConfigPath, Args: testArgs})
	return exitCode(err, 3, stderr)
}

func runWatch(ctx context.Context, stdout, stderr io.Writer, svc Service, testArgs []string) int {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := watcher.New()
	if err != nil {
		return exitCode(err, 3, stderr)
	}
	defer w.Close()

	fmt.Fprintln(stdout, "Watching for changes. Press Ctrl+C to stop.")
	err = svc.Watch(ctx, application.RunOptions{ConfigPath: defaultConfigPath, Args: testArgs}, w, func(run int, runErr error) {
		if runErr != nil {
			var exit *application.ExitError
			if errors.As(runErr, &exit) {
				// The test output already reported the failure.
				fmt.Fprintf(stdout, "\nRun %d failed; waiting for changes...\n", run)
				return
			}
			fmt.Fprintln(stderr, runErr)
			return
		}
		fmt.Fprintf(stdout, "\nRun %d complete; waiting for changes...\n", run)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return exitCode(err, 3, stderr)
	}
	return 0
}

// BuildService assembles the production service.
func BuildService(out io.Writer) *application.Service {
	module := gotool.NewCachedModuleResolver()
	return &application.Service{
		ConfigLoader: config.Loader{},
		Runner:       gotool.Runner{Module: module},
		Module:       module,
		Parser:       coverprofile.Parser{},
		Terminal:     report.TermWriter{},
		HTML:         report.HTMLWriter{},
		Opener:       browser.Opener{},
		Out:          out,
	}
}

// exitCode maps an error to the process exit status. A delegated test run's
// *application.ExitError passes its status through verbatim; the failure was
// already visible in the streamed test output, so nothing extra is printed.
// Config errors exit 2, everything else uses the command's fallback code.
func exitCode(err error, fallback int, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	var exit *application.ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	fmt.Fprintln(stderr, err)
	var cfgErr *application.ConfigError
	if errors.As(err, &cfgErr) {
		return 2
	}
	return fallback
}

func writeConfigFile(path string, cfg application.Config, stdout io.Writer, force bool) error {
	if path == "-" {
		return config.Write(stdout, cfg)
	}
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config %s already exists", path)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	if err := config.Write(file, cfg); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %s\n", path)
	return nil
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `covrun [test-args...]

Runs the test suite with coverage, prints the missing-lines summary, writes
an HTML report, and opens it in the default viewer. All arguments are
forwarded to the test run unchanged.

Commands:
  run      Same as the bare invocation
  report   Re-render reports from an existing coverage profile
  watch    Re-run coverage whenever Go files change
  init     Write .covrun.yaml (interactive unless -no-interactive)
  mcp      Serve the run/report tools over the Model Context Protocol
  version  Print build information`)
}

package gotool

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"covrun/internal/application"
)

// Runner executes the delegated test tool with coverage instrumentation.
// Caller arguments are appended verbatim after the fixed coverage options,
// and the tool's exit status is preserved exactly.
type Runner struct {
	Module ModuleInfo
	// Exec overrides command execution (for testing).
	Exec func(ctx context.Context, dir string, args []string) error
}

// Run invokes `go test` and returns the absolute profile path on success.
// A failing run returns *application.ExitError carrying the tool's status.
func (r Runner) Run(ctx context.Context, req application.RunRequest) (string, error) {
	root, err := r.Module.ModuleRoot(ctx)
	if err != nil {
		return "", err
	}

	profile := req.Profile
	if profile == "" {
		profile = filepath.Join(".cover", "coverage.out")
	}
	if !filepath.IsAbs(profile) {
		profile = filepath.Join(root, profile)
	}
	if err := os.MkdirAll(filepath.Dir(profile), 0o755); err != nil {
		return "", err
	}

	packages := req.Packages
	if len(packages) == 0 {
		packages = []string{"./..."}
	}
	mode := req.Mode
	if mode == "" {
		mode = "count"
	}

	args := []string{
		"test",
		"-covermode=" + mode,
		"-coverprofile=" + profile,
		"-coverpkg=" + strings.Join(packages, ","),
	}
	args = append(args, packages...)
	args = append(args, req.Args...)

	execFn := r.Exec
	if execFn == nil {
		execFn = runCommand
	}
	if err := execFn(ctx, root, args); err != nil {
		var exit *application.ExitError
		if errors.As(err, &exit) {
			return "", err
		}
		return "", &application.ExitError{Code: exitStatus(err), Err: err}
	}
	return profile, nil
}

// exitStatus extracts the subprocess exit code; anything that never produced
// one (exec failure, context cancellation) maps to 1.
func exitStatus(err error) int {
	var exit *exec.ExitError
	if errors.As(err, &exit) {
		return exit.ExitCode()
	}
	return 1
}

func runCommand(ctx context.Context, dir string, args []string) error {
	cmd := exec.CommandContext(ctx, "go", args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

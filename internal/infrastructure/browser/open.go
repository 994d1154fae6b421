// Package browser launches the host's default viewer for a file.
package browser

import (
	"os/exec"
	"runtime"
)

// Opener starts the platform's resource opener and does not wait for it.
type Opener struct {
	// Command overrides command construction (for testing).
	Command func(name string, args ...string) *exec.Cmd
}

// Open hands the path to the host opener. The caller decides what to do with
// a failure; the run pipeline discards it.
func (o Opener) Open(path string) error {
	name, args := openCommand(runtime.GOOS, path)
	newCommand := o.Command
	if newCommand == nil {
		newCommand = exec.Command
	}
	return newCommand(name, args...).Start()
}

func openCommand(goos, path string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{path}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", path}
	default:
		return "xdg-open", []string{path}
	}
}

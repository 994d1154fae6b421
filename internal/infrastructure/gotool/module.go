package gotool

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// ModuleInfo provides Go module information.
type ModuleInfo interface {
	ModuleRoot(ctx context.Context) (string, error)
	ModulePath(ctx context.Context) (string, error)
}

// ModuleResolver resolves the enclosing Go module via the go tool.
type ModuleResolver struct{}

func (m ModuleResolver) ModuleRoot(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, "go", "env", "GOMOD")
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return "", err
	}
	gomod := strings.TrimSpace(out.String())
	if gomod != "" && gomod != os.DevNull {
		return filepath.Dir(gomod), nil
	}
	return findModuleRoot()
}

// findModuleRoot walks parent directories looking for go.mod or go.work, for
// the workspace case where `go env GOMOD` reports the null device.
func findModuleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		for _, marker := range []string{"go.mod", "go.work"} {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("module root not found: no go.mod or go.work in current or parent directories")
		}
		dir = parent
	}
}

func (m ModuleResolver) ModulePath(ctx context.Context) (string, error) {
	root, err := m.ModuleRoot(ctx)
	if err != nil {
		return "", err
	}
	cmd := exec.CommandContext(ctx, "go", "list", "-m")
	cmd.Dir = root
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return "", err
	}
	path := strings.TrimSpace(out.String())
	if path == "" {
		return "", errors.New("module path not found")
	}
	// A go.work setup lists every module; the first line is the root module.
	if idx := strings.IndexByte(path, '\n'); idx >= 0 {
		path = strings.TrimSpace(path[:idx])
	}
	return path, nil
}

// CachedModuleResolver memoizes ModuleResolver. The module identity cannot
// change within one invocation, so each value resolves at most once.
type CachedModuleResolver struct {
	inner ModuleResolver

	rootOnce sync.Once
	root     string
	rootErr  error

	pathOnce sync.Once
	path     string
	pathErr  error
}

// NewCachedModuleResolver creates a caching resolver.
func NewCachedModuleResolver() *CachedModuleResolver {
	return &CachedModuleResolver{}
}

func (c *CachedModuleResolver) ModuleRoot(ctx context.Context) (string, error) {
	c.rootOnce.Do(func() {
		c.root, c.rootErr = c.inner.ModuleRoot(ctx)
	})
	return c.root, c.rootErr
}

func (c *CachedModuleResolver) ModulePath(ctx context.Context) (string, error) {
	c.pathOnce.Do(func() {
		c.path, c.pathErr = c.inner.ModulePath(ctx)
	})
	return c.path, c.pathErr
}

package config

import (
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"covrun/internal/application"
)

type Loader struct{}

type fileConfig struct {
	Packages []string   `yaml:"packages,omitempty"`
	Mode     string     `yaml:"mode,omitempty"`
	Report   fileReport `yaml:"report,omitempty"`
	Profile  string     `yaml:"profile,omitempty"`
	Open     *bool      `yaml:"open,omitempty"`
	Args     []string   `yaml:"args,omitempty"`
}

type fileReport struct {
	Dir string `yaml:"dir,omitempty"`
}

func (l Loader) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Load reads a .covrun.yaml. Unset fields fall back to the defaults.
func (l Loader) Load(path string) (application.Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return application.Config{}, err
	}

	var file fileConfig
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return application.Config{}, err
	}

	cfg := application.DefaultConfig()
	if len(file.Packages) > 0 {
		cfg.Packages = file.Packages
	}
	if file.Mode != "" {
		cfg.Mode = file.Mode
	}
	if file.Report.Dir != "" {
		cfg.ReportDir = file.Report.Dir
	}
	if file.Profile != "" {
		cfg.Profile = file.Profile
	}
	if file.Open != nil {
		cfg.Open = *file.Open
	}
	cfg.Args = file.Args
	return cfg, nil
}

func Write(w io.Writer, cfg application.Config) error {
	open := cfg.Open
	out := fileConfig{
		Packages: cfg.Packages,
		Mode:     cfg.Mode,
		Report:   fileReport{Dir: cfg.ReportDir},
		Profile:  cfg.Profile,
		Open:     &open,
		Args:     cfg.Args,
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	return enc.Encode(out)
}

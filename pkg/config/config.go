// Package config handles configuration for suitekit.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when a field is absent from the file.
const (
	DefaultTimeoutMs       = 30000
	DefaultPollIntervalMs  = 500
	DefaultLaunchTimeoutMs = 30000
	DefaultScreenshotDir   = "screenshots"
)

// App is the resolved runtime configuration.
type App struct {
	PackageName string // App under test, e.g. com.example.app
	AppName     string // Human-readable app name

	DefaultTimeout      time.Duration // Budget for waits and per-test watchdog
	DefaultPollInterval time.Duration // Cadence for condition polling
	AppLaunchTimeout    time.Duration // Budget for app launches

	ScreenshotDirectory        string
	CaptureScreenshotOnFailure bool
}

// File is the on-disk configuration (config.yaml). Durations are integer
// milliseconds.
type File struct {
	PackageName                string `yaml:"packageName"`
	AppName                    string `yaml:"appName"`
	DefaultTimeoutMs           int    `yaml:"defaultTimeout"`
	DefaultPollIntervalMs      int    `yaml:"defaultPollInterval"`
	AppLaunchTimeoutMs         int    `yaml:"appLaunchTimeout"`
	ScreenshotDirectory        string `yaml:"screenshotDirectory"`
	CaptureScreenshotOnFailure *bool  `yaml:"captureScreenshotOnFailure"`
}

// Resolve applies defaults and converts durations.
func (f File) Resolve() App {
	app := App{
		PackageName:                f.PackageName,
		AppName:                    f.AppName,
		DefaultTimeout:             msOrDefault(f.DefaultTimeoutMs, DefaultTimeoutMs),
		DefaultPollInterval:        msOrDefault(f.DefaultPollIntervalMs, DefaultPollIntervalMs),
		AppLaunchTimeout:           msOrDefault(f.AppLaunchTimeoutMs, DefaultLaunchTimeoutMs),
		ScreenshotDirectory:        f.ScreenshotDirectory,
		CaptureScreenshotOnFailure: true,
	}
	if app.ScreenshotDirectory == "" {
		app.ScreenshotDirectory = DefaultScreenshotDir
	}
	if f.CaptureScreenshotOnFailure != nil {
		app.CaptureScreenshotOnFailure = *f.CaptureScreenshotOnFailure
	}
	return app
}

func msOrDefault(ms, def int) time.Duration {
	if ms <= 0 {
		ms = def
	}
	return time.Duration(ms) * time.Millisecond
}

// Default returns the configuration with every field at its default.
func Default() App {
	return File{}.Resolve()
}

// Load loads configuration from a file.
func Load(path string) (App, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return App{}, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return App{}, fmt.Errorf("parse %s: %w", path, err)
	}

	return f.Resolve(), nil
}

// LoadFromDir looks for config.yaml or config.yml in the directory.
func LoadFromDir(dir string) (App, error) {
	// Try config.yaml first
	configPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// Try config.yml
	configPath = filepath.Join(dir, "config.yml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// No config file found, return defaults
	return Default(), nil
}

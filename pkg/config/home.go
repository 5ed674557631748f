package config

import (
	"os"
	"path/filepath"
	"sync"
)

const envHome = "SUITEKIT_HOME"

var home struct {
	once sync.Once
	dir  string
}

// GetHome returns the suitekit home directory, resolved once per process:
// $SUITEKIT_HOME when set, otherwise the parent of the bin/ directory the
// binary runs from, otherwise the working directory.
func GetHome() string {
	home.once.Do(func() { home.dir = resolveHome() })
	return home.dir
}

// GetReportsDir returns the default report root, <home>/reports.
func GetReportsDir() string {
	return filepath.Join(GetHome(), "reports")
}

func resolveHome() string {
	if env := os.Getenv(envHome); env != "" {
		return env
	}

	// Installed layout places the binary at <home>/bin/suitekit.
	if exe, err := os.Executable(); err == nil {
		if link, lerr := filepath.EvalSymlinks(exe); lerr == nil {
			exe = link
		}
		if dir := filepath.Dir(exe); filepath.Base(dir) == "bin" {
			return filepath.Dir(dir)
		}
	}

	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// ResetHome clears the cached home so tests can change the environment.
func ResetHome() {
	home.once = sync.Once{}
	home.dir = ""
}

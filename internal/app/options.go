package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Mode is the operation selected on the command line. Exactly one of
// SingleMode, BatchMode or WebMode.
type Mode interface {
	modeName() string
}

// SingleMode converts one directory.
type SingleMode struct {
	InputDir string
	Output   string // empty: auto-named file inside InputDir
}

// BatchMode converts several directories.
type BatchMode struct {
	Dirs      []string
	OutputDir string
	Workers   int
}

// WebMode starts the local web interface.
type WebMode struct {
	Host        string
	Port        int
	OpenBrowser bool
}

func (SingleMode) modeName() string { return "single" }
func (BatchMode) modeName() string  { return "batch" }
func (WebMode) modeName() string    { return "web" }

// ModeName returns a short label for logs.
func ModeName(m Mode) string {
	if m == nil {
		return "none"
	}
	return m.modeName()
}

// Options represents user-provided CLI parameters.
type Options struct {
	Mode      Mode
	Recursive bool
	Verbose   bool
	LogLevel  string
	LogFile   string
	Creator   string
}

// Validate performs basic validation and assigns defaults where needed.
func (o *Options) Validate() error {
	o.LogLevel = strings.TrimSpace(o.LogLevel)
	o.LogFile = strings.TrimSpace(o.LogFile)
	o.Creator = strings.TrimSpace(o.Creator)

	if o.LogLevel == "" {
		o.LogLevel = "info"
	}
	if o.LogFile == "" {
		defaultPath, err := defaultLogPath()
		if err != nil {
			return err
		}
		o.LogFile = defaultPath
	}

	switch m := o.Mode.(type) {
	case SingleMode:
		m.InputDir = strings.TrimSpace(m.InputDir)
		m.Output = strings.TrimSpace(m.Output)
		if m.InputDir == "" {
			return fmt.Errorf("input directory is required")
		}
		o.Mode = m
	case BatchMode:
		var dirs []string
		for _, d := range m.Dirs {
			if d = strings.TrimSpace(d); d != "" {
				dirs = append(dirs, d)
			}
		}
		if len(dirs) == 0 {
			return fmt.Errorf("at least one batch directory is required")
		}
		m.Dirs = dirs
		m.OutputDir = strings.TrimSpace(m.OutputDir)
		if m.Workers < 1 {
			m.Workers = 1
		}
		o.Mode = m
	case WebMode:
		m.Host = strings.TrimSpace(m.Host)
		if m.Host == "" {
			m.Host = "127.0.0.1"
		}
		if m.Port < 0 || m.Port > 65535 {
			return fmt.Errorf("invalid port %d", m.Port)
		}
		o.Mode = m
	case nil:
		return fmt.Errorf("one of input directory, batch or web mode is required")
	default:
		return fmt.Errorf("unsupported mode %T", m)
	}
	return nil
}

func defaultLogPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable path: %w", err)
	}
	dir := filepath.Dir(exe)
	// When running via `go run`, executable resides in temp; prefer current working dir then.
	if strings.HasPrefix(dir, os.TempDir()) {
		cwd, err := os.Getwd()
		if err == nil {
			dir = cwd
		}
	}
	return filepath.Join(dir, "pixtrail.log"), nil
}

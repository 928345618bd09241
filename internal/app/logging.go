package app

import (
	"io"
	"log"

	"github.com/nir0k/logger"
)

// Logger is the subset of *logger.Logger used by the pipeline.
type Logger interface {
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// LogOptions controls where run logs go. An empty File disables file output.
type LogOptions struct {
	File    string
	Level   string
	Verbose bool
}

// NewLogger builds the rotating file logger. When console is non-nil it also
// receives every message at the file level, which is how the web UI captures
// per-job logs.
func NewLogger(opts LogOptions, console io.Writer) (*logger.Logger, error) {
	consoleLevel := "fatal"
	if opts.Verbose {
		consoleLevel = "info"
	}

	cfg := logger.LogConfig{
		FilePath:       opts.File,
		Format:         "standard",
		FileLevel:      opts.Level,
		ConsoleLevel:   consoleLevel,
		ConsoleOutput:  opts.Verbose,
		EnableRotation: true,
		RotationConfig: logger.RotationConfig{
			MaxSize:    25,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		},
	}
	if console != nil {
		cfg.ConsoleLevel = opts.Level
		cfg.ConsoleOutput = true
	}

	logInstance, err := logger.NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	if console != nil {
		logInstance.Config.ConsoleOutput = true
		logInstance.ConsoleLogger = log.New(console, "", 0)
	}
	return logInstance, nil
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})    {}
func (nopLogger) Warningf(string, ...interface{}) {}
func (nopLogger) Errorf(string, ...interface{})   {}

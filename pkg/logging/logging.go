package logging

import (
	"io"
	"log"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/heysubinoy/pyazkv/pkg/config"
)

// Name is the root logger name.
const Name = "pyazkv"

// New builds the root logger from config, writing to stderr.
func New(cfg *config.Config) hclog.Logger {
	return NewWithOutput(cfg, os.Stderr)
}

// NewWithOutput builds the root logger writing to w.
func NewWithOutput(cfg *config.Config, w io.Writer) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       Name,
		Level:      hclog.LevelFromString(cfg.LogLevel),
		JSONFormat: cfg.LogJSON,
		Output:     w,
	})
}

// StandardLogger adapts l for packages that only accept *log.Logger, such as
// http.Server.ErrorLog.
func StandardLogger(l hclog.Logger) *log.Logger {
	return l.StandardLogger(&hclog.StandardLoggerOptions{InferLevels: true})
}

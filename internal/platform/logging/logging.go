package logging

import (
	"io"
	"os"
	"strings"

	hclog "github.com/hashicorp/go-hclog"

	"webtally/internal/platform/config"
)

// New builds the root logger. Components take a Named child of it.
func New(cfg config.LogConfig, w io.Writer) hclog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level := hclog.LevelFromString(strings.TrimSpace(cfg.Level))
	if level == hclog.NoLevel {
		level = hclog.Info
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       "webtally",
		Level:      level,
		Output:     w,
		JSONFormat: strings.EqualFold(cfg.Format, "json"),
	})
}

// Discard is used where a caller has no logger to hand in.
func Discard() hclog.Logger {
	return hclog.NewNullLogger()
}

package observability

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LoggerOptions shape the process logger. Out defaults to stderr; stdout is
// never used because it may carry protocol frames.
type LoggerOptions struct {
	Level     zerolog.Level
	Timestamp bool
	NoColor   bool
	JSON      bool
	Out       io.Writer
}

func InitLogger(app string, opts LoggerOptions) zerolog.Logger {
	out := opts.Out
	noColor := opts.NoColor
	if out == nil {
		out = colorable.NewColorableStderr()
		fd := os.Stderr.Fd()
		if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
			noColor = true
		}
	}

	var w io.Writer = out
	if !opts.JSON {
		w = zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    noColor,
			TimeFormat: time.RFC3339,
		}
	}

	ctx := zerolog.New(w).Level(opts.Level).With()
	if opts.Timestamp {
		ctx = ctx.Timestamp()
	}
	if app != "" {
		ctx = ctx.Str("app", app)
	}
	logger := ctx.Logger()
	log.Logger = logger
	return logger
}

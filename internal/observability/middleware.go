package observability

import (
	"time"

	"github.com/rs/zerolog"
)

const (
	StatusOK    = "ok"
	StatusError = "error"
	StatusPanic = "panic"
)

// LogCommand writes one line per handled command. Successful commands log
// at debug so a chatty peer does not flood stderr.
func LogCommand(logger zerolog.Logger, command, status string, duration time.Duration, err error) {
	event := logger.Debug()
	switch status {
	case StatusPanic:
		event = logger.Error()
	case StatusError:
		event = logger.Warn()
	}
	if err != nil {
		event = event.Err(err)
	}
	event.
		Str("command", command).
		Str("status", status).
		Dur("duration", duration).
		Msg("command")
}

// ObserveCommand logs and records a finished command.
func ObserveCommand(logger zerolog.Logger, m *Metrics, command, status string, start time.Time, err error) {
	d := time.Since(start)
	LogCommand(logger, command, status, d, err)
	m.RecordCommand(command, status, d)
}

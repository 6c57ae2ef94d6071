package logging

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/danmuck/fannport/internal/observability"
)

const (
	EnvLogLevel     = "FANNPORT_LOG_LEVEL"
	EnvLogTimestamp = "FANNPORT_LOG_TIMESTAMP"
	EnvLogNoColor   = "FANNPORT_LOG_NOCOLOR"
	EnvLogFormat    = "FANNPORT_LOG_FORMAT"

	AppName = "fannport"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

var configureOnce sync.Once

func ConfigureRuntime() {
	Configure(ProfileRuntime)
}

func ConfigureTests() {
	Configure(ProfileTest)
}

// Configure installs the global logger for profile once per process.
func Configure(profile Profile) {
	configureOnce.Do(func() {
		observability.InitLogger(AppName, Resolve(profile))
	})
}

// ConfigureRuntimeWith installs the runtime logger with a configured level
// and format. Environment variables still take precedence.
func ConfigureRuntimeWith(level, format string) {
	configureOnce.Do(func() {
		opts := defaultOptions(ProfileRuntime)
		if lvl, ok := ParseLevel(level); ok {
			opts.Level = lvl
		}
		if json, ok := ParseFormat(format); ok {
			opts.JSON = json
		}
		applyEnvOverrides(&opts)
		observability.InitLogger(AppName, opts)
	})
}

// Resolve returns the profile defaults with environment overrides applied.
func Resolve(profile Profile) observability.LoggerOptions {
	opts := defaultOptions(profile)
	applyEnvOverrides(&opts)
	return opts
}

func defaultOptions(profile Profile) observability.LoggerOptions {
	switch profile {
	case ProfileTest:
		return observability.LoggerOptions{Level: zerolog.DebugLevel, Timestamp: false}
	default:
		return observability.LoggerOptions{Level: zerolog.InfoLevel, Timestamp: true}
	}
}

func applyEnvOverrides(opts *observability.LoggerOptions) {
	if lvl, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		opts.Level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		opts.Timestamp = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		opts.NoColor = v
	}
	if json, ok := ParseFormat(os.Getenv(EnvLogFormat)); ok {
		opts.JSON = json
	}
}

func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace", "diagnostics":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none", "inactive":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

// ParseFormat reports whether raw selects JSON output.
func ParseFormat(raw string) (json bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "json":
		return true, true
	case "console", "text", "pretty":
		return false, true
	default:
		return false, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"

	"github.com/danmuck/fannport/internal/bridge"
	"github.com/danmuck/fannport/internal/protocol/frame"
)

type fileConfig struct {
	InFD            int    `toml:"in_fd"`
	OutFD           int    `toml:"out_fd"`
	Stdio           bool   `toml:"stdio"`
	Packet          int    `toml:"packet"`
	LogLevel        string `toml:"log_level"`
	LogFormat       string `toml:"log_format"`
	RandomSeed      int64  `toml:"random_seed"`
	ReportProgress  bool   `toml:"report_progress"`
	MetricsTextfile string `toml:"metrics_textfile"`
}

// runConfig is everything main needs before the service starts.
type runConfig struct {
	Service   bridge.ServiceConfig
	LogLevel  string
	LogFormat string
}

func defaultRunConfig() runConfig {
	return runConfig{Service: bridge.DefaultServiceConfig()}
}

func loadRunConfig(path string) (runConfig, error) {
	cfg := defaultRunConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return runConfig{}, fmt.Errorf("load fannport config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return runConfig{}, fmt.Errorf("load fannport config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("in_fd") {
		cfg.Service.InFD = raw.InFD
	}
	if meta.IsDefined("out_fd") {
		cfg.Service.OutFD = raw.OutFD
	}
	if meta.IsDefined("stdio") {
		cfg.Service.Stdio = raw.Stdio
	}
	if meta.IsDefined("packet") {
		cfg.Service.Packet = raw.Packet
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("log_format") {
		cfg.LogFormat = strings.TrimSpace(raw.LogFormat)
	}
	if meta.IsDefined("random_seed") {
		if raw.RandomSeed < 0 {
			return runConfig{}, fmt.Errorf("parse random_seed: %d is negative", raw.RandomSeed)
		}
		cfg.Service.Seed = uint64(raw.RandomSeed)
	}
	if meta.IsDefined("report_progress") {
		cfg.Service.ReportProgress = raw.ReportProgress
	}
	if meta.IsDefined("metrics_textfile") {
		cfg.Service.MetricsTextfile = strings.TrimSpace(raw.MetricsTextfile)
	}

	return cfg, nil
}

// flagValues mirrors the root command flags. Only flags the user set
// override the file.
type flagValues struct {
	stdio           bool
	packet          int
	logLevel        string
	seed            uint64
	metricsTextfile string
}

func (f flagValues) apply(fs *pflag.FlagSet, cfg *runConfig) {
	if fs.Changed("stdio") {
		cfg.Service.Stdio = f.stdio
	}
	if fs.Changed("packet") {
		cfg.Service.Packet = f.packet
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if fs.Changed("seed") {
		cfg.Service.Seed = f.seed
	}
	if fs.Changed("metrics-textfile") {
		cfg.Service.MetricsTextfile = f.metricsTextfile
	}
}

func (c runConfig) validate() error {
	if err := (frame.Config{Width: c.Service.Packet}).Validate(); err != nil {
		return err
	}
	if !c.Service.Stdio && (c.Service.InFD < 0 || c.Service.OutFD < 0) {
		return fmt.Errorf("invalid descriptors in_fd=%d out_fd=%d", c.Service.InFD, c.Service.OutFD)
	}
	return nil
}

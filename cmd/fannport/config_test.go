package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/fannport/internal/testutil/testlog"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fannport.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadRunConfigExample(t *testing.T) {
	testlog.Start(t)
	cfg, err := loadRunConfig("ex.config.toml")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Service.InFD != 3 || cfg.Service.OutFD != 4 {
		t.Fatalf("unexpected fds: %d %d", cfg.Service.InFD, cfg.Service.OutFD)
	}
	if cfg.Service.Packet != 2 || cfg.Service.Stdio {
		t.Fatalf("unexpected transport: %+v", cfg.Service)
	}
	if cfg.Service.Seed != 1234 {
		t.Fatalf("unexpected seed: %d", cfg.Service.Seed)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "console" {
		t.Fatalf("unexpected log settings: %q %q", cfg.LogLevel, cfg.LogFormat)
	}
	if err := cfg.validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadRunConfigKeepsDefaultsForMissingKeys(t *testing.T) {
	testlog.Start(t)
	cfg, err := loadRunConfig(writeConfig(t, "stdio = true\npacket = 4\n"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.Service.Stdio || cfg.Service.Packet != 4 {
		t.Fatalf("overrides not applied: %+v", cfg.Service)
	}
	if cfg.Service.InFD != 3 || cfg.Service.OutFD != 4 {
		t.Fatalf("defaults lost: %+v", cfg.Service)
	}
	if !cfg.Service.ReportProgress {
		t.Fatalf("report_progress default lost")
	}
}

func TestLoadRunConfigRejectsBadInput(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"unknown key":   "verbose = true\n",
		"negative seed": "random_seed = -1\n",
		"bad toml":      "packet = \n",
	}
	for name, body := range cases {
		if _, err := loadRunConfig(writeConfig(t, body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := loadRunConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("missing file: expected error")
	}
}

func TestValidateRejectsBadPacket(t *testing.T) {
	testlog.Start(t)
	cfg := defaultRunConfig()
	cfg.Service.Packet = 3
	if err := cfg.validate(); err == nil {
		t.Fatalf("expected invalid packet width")
	}
}

func TestFlagsOverrideFile(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, "packet = 4\nrandom_seed = 5\nmetrics_textfile = \"/tmp/a.prom\"\n")

	cmd := newRootCommand()
	if err := cmd.Flags().Parse([]string{"--packet", "1", "--stdio"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	packet, _ := cmd.Flags().GetInt("packet")
	stdio, _ := cmd.Flags().GetBool("stdio")
	cfg, err := resolveRunConfig(cmd, path, flagValues{packet: packet, stdio: stdio})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Service.Packet != 1 || !cfg.Service.Stdio {
		t.Fatalf("flags not applied: %+v", cfg.Service)
	}
	if cfg.Service.Seed != 5 || cfg.Service.MetricsTextfile != "/tmp/a.prom" {
		t.Fatalf("file values lost: %+v", cfg.Service)
	}
}

func TestCommandsSubcommandListsTable(t *testing.T) {
	testlog.Start(t)
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"commands", "--params"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), "learning_rate\n") {
		t.Fatalf("param list missing learning_rate:\n%s", out.String())
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/danmuck/fannport/internal/bridge"
	"github.com/danmuck/fannport/internal/logging"
	"github.com/danmuck/fannport/internal/protocol/frame"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fannport: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		configPath string
		flags      flagValues
	)

	cmd := &cobra.Command{
		Use:   "fannport",
		Short: "Erlang port bridge for feed-forward neural networks",
		Long: `fannport is spawned by an Erlang node as a port program. It reads
length-prefixed external term format requests from fd 3, answers on fd 4 and
logs to stderr.

Example:
  open_port({spawn_executable, "fannport"}, [{packet, 2}, nouse_stdio, binary])
  fannport --stdio --packet 4 --log-level debug`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveRunConfig(cmd, configPath, flags)
			if err != nil {
				return err
			}
			logging.ConfigureRuntimeWith(cfg.LogLevel, cfg.LogFormat)
			return bridge.NewServiceWithConfig(cfg.Service).Run()
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a TOML config file")
	cmd.Flags().BoolVar(&flags.stdio, "stdio", false, "use stdin/stdout instead of fds 3 and 4")
	cmd.Flags().IntVar(&flags.packet, "packet", frame.DefaultWidth, "length prefix width in bytes: 1, 2 or 4")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "log level: trace, debug, info, warn, error or off")
	cmd.Flags().Uint64Var(&flags.seed, "seed", 0, "seed for weight initialisation and shuffling (0 = random)")
	cmd.Flags().StringVar(&flags.metricsTextfile, "metrics-textfile", "", "write prometheus metrics to this file on exit")

	cmd.AddCommand(newCommandsCommand())
	return cmd
}

func resolveRunConfig(cmd *cobra.Command, configPath string, flags flagValues) (runConfig, error) {
	cfg := defaultRunConfig()
	if configPath != "" {
		loaded, err := loadRunConfig(configPath)
		if err != nil {
			return runConfig{}, err
		}
		cfg = loaded
	}
	flags.apply(cmd.Flags(), &cfg)
	if err := cfg.validate(); err != nil {
		return runConfig{}, err
	}
	return cfg, nil
}

func newCommandsCommand() *cobra.Command {
	var params bool
	cmd := &cobra.Command{
		Use:   "commands",
		Short: "List the port commands or get_param names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if params {
				for _, name := range bridge.ParamNames() {
					fmt.Fprintln(out, name)
				}
				return nil
			}
			for _, c := range bridge.Commands() {
				fmt.Fprintf(out, "%-26s %s\n", c.Name, c.Summary)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&params, "params", false, "list get_param names instead")
	return cmd
}

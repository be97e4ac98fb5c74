package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gogpu/glstate/backend"
	_ "github.com/gogpu/glstate/backend/memory" // register "memory"
	_ "github.com/gogpu/glstate/backend/wgpu"   // register "wgpu"
	"github.com/gogpu/glstate/trace"
)

// errReplayFailed is returned by run when a trace diverges.
var errReplayFailed = errors.New("replay failed")

func newRootCmd() *cobra.Command {
	var (
		configPath string
		cfg        config
	)
	root := &cobra.Command{
		Use:   "glreplay",
		Short: "Replay glstate call traces",
		Long: `glreplay replays YAML call traces against a glstate context and
reports the first step whose outcome differs from the trace.

Settings come from flags, GLREPLAY_* environment variables and
glreplay.yaml in the working directory, in that order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default: ./glreplay.yaml)")
	flags.String("backend", "", "native backend (see glreplay backends)")
	flags.String("link-policy", "", "link policy: default or strict")
	flags.Bool("stereo", false, "give the default framebuffer right-hand planes")
	flags.String("log-level", "", "log level: debug, info, warn or error")

	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		v, err := newViper(flags)
		if err != nil {
			return err
		}
		if cfg, err = loadConfig(v, configPath); err != nil {
			return err
		}
		cfg.setupLogging()
		return nil
	}

	root.AddCommand(
		newRunCmd(&cfg),
		newBackendsCmd(),
		newOpsCmd(),
	)
	return root
}

func newRunCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "run <trace.yaml>",
		Short: "Replay a trace and print the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := trace.Load(args[0])
			if err != nil {
				return err
			}
			n, err := backend.Open(cfg.Backend)
			if err != nil {
				return err
			}
			defer backend.Close(n)

			rep, err := trace.Replay(cmd.Context(), n, tr, cfg.options()...)
			if rep != nil {
				fmt.Fprintln(cmd.OutOrStdout(), rep)
			}
			if err != nil {
				return err
			}
			if !rep.OK() {
				return fmt.Errorf("%w: %v", errReplayFailed, rep.Failure)
			}
			return nil
		},
	}
}

func newBackendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List the registered native backends",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			best := backend.DefaultName()
			for _, name := range backend.Available() {
				mark := " "
				if name == best {
					mark = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", mark, name)
			}
		},
	}
}

func newOpsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ops",
		Short: "List the trace operations and expect names",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "ops:")
			fmt.Fprintln(out, "  "+strings.Join(trace.Ops(), "\n  "))
			fmt.Fprintln(out, "errors:")
			fmt.Fprintln(out, "  "+strings.Join(trace.ErrorNames(), "\n  "))
		},
	}
}

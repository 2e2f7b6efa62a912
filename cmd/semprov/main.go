// Package main provides the semprov binary entry point.
// Semprov loads ValueFlows data into a quad store and walks its provenance
// graph forward (track) or backward (trace).
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/semprov/config"
	"github.com/c360studio/semprov/export"
	"github.com/c360studio/semprov/provenance"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "semprov"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   appName,
		Short: "ValueFlows provenance explorer",
		Long: `Semprov answers provenance questions over ValueFlows data held in an
RDF quad store.

  track  follows a resource forward to everything it went into
  trace  follows a resource backward to everything it came from
  load   adds N-Triples / N-Quads files to the configured store
  dump   prints every stored quad as N-Quads
  init   writes the default user config if there is none

Nodes may be given as full IRIs or prefixed names (vf:..., or any prefix
from the config file or --prefix).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&flags.backend, "backend", "", "Store backend (memory, badger, sqlite, nats)")
	pf.StringVar(&flags.storePath, "store", "", "Badger directory or sqlite file")
	pf.StringArrayVar(&flags.prefixes, "prefix", nil, "Namespace prefix as name=IRI (repeatable)")

	cmd.AddCommand(
		walkCmd(&flags, provenance.Forward),
		walkCmd(&flags, provenance.Backward),
		loadCmd(&flags),
		dumpCmd(&flags),
		initCmd(&flags),
		versionCmd(),
	)

	return cmd
}

func walkCmd(flags *globalFlags, dir provenance.Direction) *cobra.Command {
	var (
		format   string
		maxDepth int
		load     []string
	)

	use, short := "track <node>", "Follow a node forward through the processes it fed"
	if dir == provenance.Backward {
		use, short = "trace <node>", "Follow a node backward to where it came from"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			app, err := NewApp(cmd.Context(), *flags, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, app.Close()) }()

			if len(load) > 0 {
				if _, err := app.Load(cmd.Context(), load...); err != nil {
					return err
				}
			}

			_, err = app.Walk(cmd.Context(), WalkRequest{
				Direction: dir,
				Start:     args[0],
				Format:    format,
				MaxDepth:  maxDepth,
			})
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", "", "Output format ("+export.FormatList()+")")
	cmd.Flags().IntVar(&maxDepth, "max-depth", -1, "Stop descending past this distance (0 = unlimited, default from config)")
	cmd.Flags().StringArrayVar(&load, "load", nil, "Load files matching this glob before walking (repeatable)")
	return cmd
}

func loadCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "load <glob>...",
		Short: "Load N-Triples or N-Quads files into the store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			app, err := NewApp(cmd.Context(), *flags, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, app.Close()) }()

			results, err := app.Load(cmd.Context(), args...)
			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d quads\n", r.Path, r.Quads)
			}
			return err
		},
	}
}

func dumpCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print every stored quad as N-Quads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			app, err := NewApp(cmd.Context(), *flags, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, app.Close()) }()

			_, err = app.Dump(cmd.Context())
			return err
		},
	}
}

func initCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the default user config (~/" + config.UserConfigDir + "/" + config.UserConfigFile + ")",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd.ErrOrStderr(), flags.logLevel, "text")
			path, err := config.NewLoader(logger).EnsureUserConfig()
			if err != nil {
				return fmt.Errorf("init user config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	}
}

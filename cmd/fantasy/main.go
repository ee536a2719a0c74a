package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fantasy",
		Short:         "Build the Guardianes fantasy cycling startlist from ProCyclingStats",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initSlog(verbose)
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(collectCmd())
	root.AddCommand(valueCmd())
	root.AddCommand(publishCmd())
	root.AddCommand(runCmd())
	root.AddCommand(showCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(serveCmd())

	return root
}

func collectCmd() *cobra.Command {
	var race, out string

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Scrape the race startlist into the startlist file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect(cmd.Context(), race, out)
		},
	}

	cmd.Flags().StringVar(&race, "race", "", "PCS race slug, e.g. race/tour-de-france/2025 (default: from config)")
	cmd.Flags().StringVar(&out, "out", "", "startlist file (default: from config)")
	return cmd
}

func valueCmd() *cobra.Command {
	var in, out string

	cmd := &cobra.Command{
		Use:   "value",
		Short: "Compute rider values from PCS ranking points",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValue(cmd.Context(), in, out)
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "startlist file (default: from config)")
	cmd.Flags().StringVar(&out, "out", "", "values file (default: from config)")
	return cmd
}

func publishCmd() *cobra.Command {
	var (
		in     string
		verify bool
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Write the values file to the Google spreadsheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(cmd.Context(), in, verify)
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "values file (default: from config)")
	cmd.Flags().BoolVar(&verify, "verify", false, "read the tab back after writing")
	return cmd
}

func runCmd() *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Collect, value and publish in sequence",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd.Context(), verify)
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", false, "read the tab back after writing")
	return cmd
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [file]",
		Short: "Print a rider file as a table (default: the values file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			return runShow(path)
		},
	}
}

func historyCmd() *cobra.Command {
	var (
		stage string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived pipeline runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), stage, limit)
		},
	}

	cmd.Flags().StringVar(&stage, "stage", "", "only runs of this stage (collect, value, publish)")
	cmd.Flags().IntVar(&limit, "limit", 20, "max runs to show")
	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the run archive over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

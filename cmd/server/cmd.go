package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dnalab/design-evolution/internal/artifact"
	"github.com/dnalab/design-evolution/internal/config"
	"github.com/dnalab/design-evolution/internal/platform/logger"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "dna-server",
		Short:         "Design evolution server",
		Long:          `Serves the feedback, status, image and transcription API that drives iterative design rounds.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a config file (default: ./config.yaml if present)")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newPruneCmd(&configPath))
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, *configPath)
		},
	}
}

func runServer(ctx context.Context, configPath string) error {
	cfg, err := loadAppConfig(configPath)
	if err != nil {
		return err
	}

	l, err := setupAppLogger(cfg)
	if err != nil {
		return err
	}

	app, err := newApplication(ctx, cfg, l)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}

// newPruneCmd reads artifacts.dir and artifacts.max_count from the same
// config file and environment as serve. --dir and --max-count override them.
func newPruneCmd(configPath *string) *cobra.Command {
	var (
		dir      string
		maxCount int
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete the oldest generated images beyond a count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			artifacts, err := config.LoadArtifacts(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if cmd.Flags().Changed("dir") {
				artifacts.Dir = dir
			}
			if cmd.Flags().Changed("max-count") {
				artifacts.MaxCount = maxCount
			}
			if artifacts.Dir == "" {
				return errors.New("--dir must not be empty")
			}
			if artifacts.MaxCount < 1 {
				return fmt.Errorf("--max-count must be at least 1, got %d", artifacts.MaxCount)
			}

			l := logger.New(os.Stderr, "info")
			return pruneArtifacts(cmd.Context(), artifacts.Dir, artifacts.MaxCount, l, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "artifact directory (default: artifacts.dir)")
	cmd.Flags().IntVar(&maxCount, "max-count", 0, "number of newest images to keep (default: artifacts.max_count)")
	return cmd
}

func pruneArtifacts(ctx context.Context, dir string, maxCount int, l *slog.Logger, out io.Writer) error {
	store, err := artifact.NewDiskStore(dir, l)
	if err != nil {
		return err
	}
	removed, err := store.Cleanup(ctx, maxCount)
	if err != nil {
		return fmt.Errorf("prune %s: %w", dir, err)
	}
	_, err = fmt.Fprintf(out, "removed %d image(s) from %s\n", removed, dir)
	return err
}

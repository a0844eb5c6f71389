package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/anotes"
	"github.com/aretw0/anotes/internal/config"
)

var (
	verbose    bool
	configPath string
	password   string

	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "anotes",
	Short: "A local note keeper with a trash, a private space and document storage",
	Long: `anotes keeps notes and uploaded documents in a local data directory.
Trashed notes are purged after the retention window; private notes stay
hidden until the private space is unlocked with --password.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		level := cfg.SlogLevel()
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "anotes.yaml", "Path to the config file")
	rootCmd.PersistentFlags().StringVarP(&password, "password", "p", "", "Private space password; unlocks private notes for this command")
}

// openKeeper opens the configured data directory. When --password is given the
// private space is unlocked, and a wrong password is an error.
func openKeeper(ctx context.Context, extra ...anotes.Option) (*anotes.Keeper, error) {
	opts := []anotes.Option{
		anotes.WithLogger(slog.Default()),
		anotes.WithAdapter(cfg.Data.Adapter),
		anotes.WithBlobAdapter(cfg.Blobs.Adapter),
		anotes.WithCouchDB(cfg.Blobs.CouchURL, cfg.Blobs.CouchDB),
		anotes.WithFlatCapacity(cfg.Data.FlatCapacity),
		anotes.WithLimits(anotes.Limits{MaxFileSize: cfg.Quota.MaxFileSize, MaxTotalSize: cfg.Quota.MaxTotalSize}),
		anotes.WithRetention(cfg.Trash.RetentionDays, cfg.Trash.SweepInterval),
		anotes.WithDevSafety(false),
	}
	k, err := anotes.Open(ctx, cfg.Data.Path, append(opts, extra...)...)
	if err != nil {
		return nil, err
	}

	if password != "" && !k.Notes.UnlockPrivateSpace(password) {
		_ = k.Close()
		return nil, fmt.Errorf("wrong private space password")
	}
	return k, nil
}

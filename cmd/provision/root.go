package main

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"profile-agent/internal/app"
)

type globalOptions struct {
	root          string
	dbPath        string
	debug         bool
	publicBaseURL string
	staticPrefix  string

	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:           "provision",
		Short:         "Manage synthetic dating profiles built from a photo corpus",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if opts.logger != nil {
				return nil
			}
			logger, err := app.NewLogger(opts.debug)
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	f := cmd.PersistentFlags()
	f.StringVar(&opts.root, "root", envOr("PHOTOS_ROOT", "uploads"), "photo corpus root (local path or afs URL)")
	f.StringVar(&opts.dbPath, "db", envOr("PROFILES_DB", "profiles.db"), "sqlite profile database")
	f.BoolVar(&opts.debug, "debug", envBool("DEBUG"), "enable debug logging")
	f.StringVar(&opts.publicBaseURL, "public-base-url", os.Getenv("PUBLIC_BASE_URL"), "base URL where corpus files were uploaded")
	f.StringVar(&opts.staticPrefix, "static-prefix", envOr("STATIC_PREFIX", "/uploads"), "path prefix for locally served photos")

	cmd.AddCommand(
		newRunCmd(opts),
		newPurgeCmd(opts),
		newReconcileCmd(opts),
		newSimulateCmd(opts),
		newServeCmd(opts),
	)
	return cmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string) bool {
	b, _ := strconv.ParseBool(os.Getenv(key))
	return b
}

func envInt(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return n
}

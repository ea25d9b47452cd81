package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	configCmd "github.com/sidkik/dirmirror/cmd/config"
	"github.com/sidkik/dirmirror/cmd/util"
	"github.com/sidkik/dirmirror/cmd/version"
	"github.com/sidkik/dirmirror/pkg/config"
	"github.com/sidkik/dirmirror/pkg/driver"
	"github.com/sidkik/dirmirror/pkg/errors"
	"github.com/sidkik/dirmirror/pkg/fswatch"
	"github.com/sidkik/dirmirror/pkg/mirror"
	"github.com/sidkik/dirmirror/pkg/synclog"
)

// verboseLogKey is the environment variable used to enable verbose logging.
// When it's set to `true`, Debug events are logged, rather than just Info and
// above.
const verboseLogKey = "DIRMIRROR_LOG_VERBOSE"

const sourceNotFoundTemplate = "The source folder %q does not exist. " +
	"Please check the path."

// Execute runs the main CLI process.
func Execute() {
	if os.Getenv(verboseLogKey) == "true" {
		log.SetLevel(log.DebugLevel)
	}

	rootCmd := &cobra.Command{
		Use:   "dirmirror SOURCE REPLICA INTERVAL LOGFILE",
		Short: "Keep REPLICA an exact copy of SOURCE, syncing every INTERVAL seconds.",
		Long: "dirmirror periodically makes REPLICA identical to SOURCE. Files " +
			"are compared by content, missing files and folders are created, " +
			"and anything in REPLICA that isn't in SOURCE is deleted. Every " +
			"change is logged to LOGFILE and stdout.",
		Args:         cobra.ExactArgs(4),
		SilenceUsage: true,

		// The call to rootCmd.Execute prints the error, so we silence errors
		// here to avoid double printing.
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(),
				os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return run(ctx, args, os.Stdout)
		},
	}
	rootCmd.AddCommand(
		configCmd.New(),
		version.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		util.HandleFatalError(err)
	}
}

// run syncs until `ctx` is cancelled. Sync log lines are mirrored to
// `stdout`.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	cfg, err := config.FromArgs(args)
	if err != nil {
		return err
	}

	if err := cfg.CheckSource(); err != nil {
		if _, ok := errors.RootCause(err).(errors.FileNotFound); ok {
			return errors.NewFriendlyError(sourceNotFoundTemplate, cfg.Source)
		}
		return errors.WithContext(err, "check source")
	}

	userConfig, err := config.ParseUser()
	if err != nil {
		return errors.WithContext(err, "parse user config")
	}

	if userConfig.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	lock, err := driver.AcquireLock(cfg.Replica)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			log.WithError(err).Warn("Failed to release replica lock")
		}
	}()

	syncLog, err := synclog.Open(afero.NewOsFs(), cfg.LogFile, stdout)
	if err != nil {
		return errors.WithContext(err, "open sync log")
	}
	defer func() {
		if err := syncLog.Close(); err != nil {
			log.WithError(err).Warn("Failed to close sync log")
		}
	}()

	fs := afero.NewOsFs()
	hasher, err := mirror.NewHasher(fs, userConfig.Hash)
	if err != nil {
		return errors.WithContext(err, "create hasher")
	}

	reconciler := mirror.NewReconciler(fs, hasher, syncLog)
	d := driver.New(cfg.Source, cfg.Replica, cfg.Interval, reconciler, syncLog)

	if userConfig.Watch {
		watcher, err := fswatch.Watch(cfg.Source, cfg.LogFile)
		if err != nil {
			// The interval still picks up changes, so watching is best effort.
			log.WithError(err).Warn("Failed to watch source folder. " +
				"Changes will only be synced on the interval.")
		} else {
			defer watcher.Close()
			d.WithTrigger(watcher.C)
		}
	}

	log.WithField("source", cfg.Source).
		WithField("replica", cfg.Replica).
		WithField("interval", cfg.Interval).
		Debug("Starting sync")
	return d.Run(ctx)
}

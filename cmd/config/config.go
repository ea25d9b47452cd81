package config

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sidkik/dirmirror/cmd/util"
	"github.com/sidkik/dirmirror/pkg/config"
	"github.com/sidkik/dirmirror/pkg/errors"
	"github.com/sidkik/dirmirror/pkg/mirror"
)

// Mocked for unit testing.
var (
	stdout            io.Writer = os.Stdout
	parseUserConfig             = config.ParseUser
	writeUserConfig             = config.WriteUser
	getUserConfigPath           = config.GetUserConfigPath
)

// New creates a new `config` command.
func New() *cobra.Command {
	var cliOpts config.User
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Update the dirmirror user configuration",
		Long: "Update the dirmirror user configuration. Only the settings " +
			"passed as flags are changed.",
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			changed := map[string]bool{}
			for _, flag := range []string{"hash", "verbose", "watch"} {
				changed[flag] = cmd.Flags().Changed(flag)
			}

			if err := updateConfig(cliOpts, changed); err != nil {
				err = errors.NewFriendlyError("Failed to update configuration:\n%s",
					errors.GetPrintableMessage(err))
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringVar(&cliOpts.Hash, "hash", mirror.SHA512,
		fmt.Sprintf("The algorithm used to compare file contents (%s or %s).",
			mirror.SHA512, mirror.BLAKE2b))
	cmd.Flags().BoolVar(&cliOpts.Verbose, "verbose", false,
		"Log debug messages.")
	cmd.Flags().BoolVar(&cliOpts.Watch, "watch", false,
		"Start a sync as soon as the source folder changes.")

	// Setup the commands for querying the contents of the user config.
	type getterSpec struct {
		use, short string
		fn         func(config.User) string
	}

	getters := []getterSpec{
		{
			use:   "get-hash",
			short: "Get the configured hash algorithm",
			fn:    func(cfg config.User) string { return cfg.Hash },
		},
		{
			use:   "get-watch",
			short: "Get whether changes to the source folder start a sync",
			fn:    func(cfg config.User) string { return fmt.Sprint(cfg.Watch) },
		},
	}
	for _, getter := range getters {
		getter := getter
		cmd.AddCommand(&cobra.Command{
			Use:   getter.use,
			Short: getter.short,
			Args:  cobra.NoArgs,
			Run: func(_ *cobra.Command, _ []string) {
				cfg, err := parseUserConfig()
				if err != nil {
					err = errors.WithContext(err, "read config")
					util.HandleFatalError(err)
				}

				fmt.Fprintln(stdout, getter.fn(cfg))
			},
		})
	}

	return cmd
}

// updateConfig overrides the current user config with the fields of `cliOpts`
// that were set on the command line.
func updateConfig(cliOpts config.User, changed map[string]bool) error {
	cfg, err := parseUserConfig()
	if err != nil {
		return errors.WithContext(err, "read config")
	}

	if changed["hash"] {
		cfg.Hash = cliOpts.Hash
	}
	if changed["verbose"] {
		cfg.Verbose = cliOpts.Verbose
	}
	if changed["watch"] {
		cfg.Watch = cliOpts.Watch
	}

	if err := writeUserConfig(cfg); err != nil {
		return errors.WithContext(err, "write config")
	}

	path, err := getUserConfigPath()
	if err != nil {
		return errors.WithContext(err, "get user config path")
	}

	fmt.Fprintf(stdout, "Wrote config to %s\n", path)
	return nil
}

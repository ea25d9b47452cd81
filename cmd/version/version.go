package version

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/sidkik/dirmirror/pkg/version"
)

// New creates a new `version` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of dirmirror.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dirmirror %s (%s/%s)\n",
				version.Version, runtime.GOOS, runtime.GOARCH)
		},
	}
}

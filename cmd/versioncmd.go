// versioncmd.go implements `vellum version`: build information.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vellumdb/vellum/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		info := version.Get()
		if JSON() {
			return PrintJSON(info)
		}
		fmt.Fprint(out, info.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

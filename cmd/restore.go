// restore.go implements `vellum restore`: revive a deleted path.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var restoreCmd = &cobra.Command{
	Use:   "restore <corpus> <path>",
	Short: "Restore a deleted document path",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := svc.Store().CorpusByTitle(ctx, args[0])
		if err != nil {
			return err
		}
		node, err := svc.Restore(ctx, c.ID, args[1], user)
		if err != nil {
			return err
		}
		if JSON() {
			return PrintJSON(node.ToJSON())
		}
		fmt.Fprintf(out, "restored %s (v%d)\n", node.Path, node.VersionNumber)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(restoreCmd)
}

// rm.go implements `vellum rm`: soft-delete an active path.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm <corpus> <path>",
	Short: "Delete a document path (recoverable)",
	Long: `Delete removes the path from the current filesystem view. The content and
its full history survive; 'vellum restore' brings the path back and
'vellum trash' lists what is deleted.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := svc.Store().CorpusByTitle(ctx, args[0])
		if err != nil {
			return err
		}
		node, err := svc.Delete(ctx, c.ID, args[1], user)
		if err != nil {
			return err
		}
		if JSON() {
			return PrintJSON(node.ToJSON())
		}
		fmt.Fprintf(out, "deleted %s\n", node.Path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rmCmd)
}

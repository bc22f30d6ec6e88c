// mv.go implements `vellum mv`: relocate an active path.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vellumdb/vellum/internal/store"
)

var (
	mvToRoot   bool
	mvToFolder int64
)

var mvCmd = &cobra.Command{
	Use:   "mv <corpus> <old-path> <new-path>",
	Short: "Move a document to a new path",
	Long: `Move relocates the active path without touching content: the document and
its version number carry over unchanged. The old path becomes historical.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := svc.Store().CorpusByTitle(ctx, args[0])
		if err != nil {
			return err
		}

		folder := store.FolderUnchanged()
		if mvToRoot {
			folder = store.FolderRoot()
		} else if cmd.Flags().Changed("folder") {
			f, err := svc.Store().Folder(ctx, mvToFolder)
			if err != nil {
				return err
			}
			if f.CorpusID != c.ID {
				return fmt.Errorf("%w: folder %d in corpus %q", store.ErrNotFound, mvToFolder, c.Title)
			}
			folder = store.FolderTo(f.ID)
		}

		node, err := svc.Move(ctx, c.ID, args[1], args[2], user, folder)
		if err != nil {
			return err
		}
		if JSON() {
			return PrintJSON(node.ToJSON())
		}
		fmt.Fprintf(out, "%s -> %s (v%d)\n", args[1], node.Path, node.VersionNumber)
		return nil
	},
}

func init() {
	mvCmd.Flags().BoolVar(&mvToRoot, "root", false, "place the path at corpus root level")
	mvCmd.Flags().Int64Var(&mvToFolder, "folder", 0, "place the path inside this folder id")
	rootCmd.AddCommand(mvCmd)
}

// cat.go implements `vellum cat`: print the content of a document version.

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var catVersion int

var catCmd = &cobra.Command{
	Use:   "cat <corpus> <path>",
	Short: "Print document content",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := svc.Store().CorpusByTitle(ctx, args[0])
		if err != nil {
			return err
		}
		node, err := svc.Store().ActivePath(ctx, c.ID, args[1])
		if err != nil {
			return err
		}

		docID := node.DocumentID
		if catVersion > 0 {
			chain, err := svc.ContentHistory(ctx, docID, user)
			if err != nil {
				return err
			}
			if catVersion > len(chain) {
				return fmt.Errorf("version %d of %d", catVersion, len(chain))
			}
			docID = chain[catVersion-1].ID
		}

		rc, err := svc.ReadContent(ctx, docID, user)
		if err != nil {
			return err
		}
		defer rc.Close()
		_, err = io.Copy(out, rc)
		return err
	},
}

func init() {
	catCmd.Flags().IntVar(&catVersion, "version", 0, "content version (default latest)")
	rootCmd.AddCommand(catCmd)
}

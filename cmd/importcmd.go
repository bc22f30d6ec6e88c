// importcmd.go implements `vellum import`: record file content at a corpus
// path. Reads from a file argument or stdin.

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vellumdb/vellum/internal/engine"
)

var (
	importTitle string
	importType  string
	importPages int
)

var importCmd = &cobra.Command{
	Use:   "import <corpus> <path> [file]",
	Short: "Import content at a corpus path",
	Long: `Import records content at (corpus, path). Re-importing identical content
is a no-op; new content at an existing path becomes a new version. Content
already known to the corpus is linked, not duplicated.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := svc.Store().CorpusByTitle(ctx, args[0])
		if err != nil {
			return err
		}

		var content []byte
		if len(args) == 3 {
			if content, err = os.ReadFile(args[2]); err != nil {
				return err
			}
		} else {
			if content, err = io.ReadAll(os.Stdin); err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
		}

		res, err := svc.Import(ctx, engine.ImportRequest{
			CorpusID:  c.ID,
			Path:      args[1],
			Content:   content,
			Creator:   user,
			Title:     importTitle,
			FileType:  importType,
			PageCount: importPages,
		})
		if err != nil {
			return err
		}

		if JSON() {
			return PrintJSON(map[string]any{
				"status":   res.Status,
				"document": res.Document.ToJSON(),
				"path":     res.PathNode.ToJSON(),
			})
		}
		fmt.Fprintf(out, "%s %s (v%d)\n", res.Status, res.PathNode.Path, res.PathNode.VersionNumber)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importTitle, "title", "", "document title")
	importCmd.Flags().StringVar(&importType, "type", "", "file type (e.g. pdf, txt)")
	importCmd.Flags().IntVar(&importPages, "pages", 0, "page count")
	rootCmd.AddCommand(importCmd)
}

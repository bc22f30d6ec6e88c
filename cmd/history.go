// history.go implements `vellum history`: lifecycle events of a path line,
// or the content lineage with --content.

package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/vellumdb/vellum/internal/format"
)

var historyContent bool

var historyCmd = &cobra.Command{
	Use:   "history <corpus> <path>",
	Short: "Show the history of a document path",
	Long: `History walks a path line oldest-first, labelling each event: CREATED,
UPDATED, MOVED, DELETED, RESTORED. With --content it shows the content
lineage instead: every byte version the document has held.`,
	Args: cobra.ExactArgs(2),
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

		if historyContent {
			chain, err := svc.ContentHistory(ctx, node.DocumentID, user)
			if err != nil {
				return err
			}
			if JSON() {
				views := make([]any, len(chain))
				for i := range chain {
					views[i] = chain[i].ToJSON()
				}
				return PrintJSON(views)
			}
			return format.ContentChain(out, chain)
		}

		events, err := svc.PathHistory(ctx, node.ID, user)
		if err != nil {
			return err
		}
		if JSON() {
			type eventJSON struct {
				Action string `json:"action"`
				Path   string `json:"path"`
				At     string `json:"at"`
				By     string `json:"by"`
			}
			views := make([]eventJSON, len(events))
			for i, e := range events {
				views[i] = eventJSON{
					Action: string(e.Action),
					Path:   e.Node.Path,
					At:     time.Unix(0, e.Node.CreatedAt).UTC().Format(time.RFC3339Nano),
					By:     e.Node.Creator,
				}
			}
			return PrintJSON(views)
		}
		return format.History(out, events)
	},
}

func init() {
	historyCmd.Flags().BoolVar(&historyContent, "content", false, "show content versions instead of path events")
	rootCmd.AddCommand(historyCmd)
}

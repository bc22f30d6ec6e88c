// ls.go implements `vellum ls` (current or time-travelled filesystem view)
// and `vellum trash` (deleted paths).

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vellumdb/vellum/internal/duration"
	"github.com/vellumdb/vellum/internal/format"
	"github.com/vellumdb/vellum/internal/store"
)

var (
	lsAt     string
	lsFormat string
)

var lsCmd = &cobra.Command{
	Use:   "ls <corpus>",
	Short: "List document paths in a corpus",
	Long: `List shows the active paths of a corpus. With --at, the filesystem is
reconstructed exactly as it was at that time, given either as RFC3339 or
as a lookback like "7d" (seven days ago).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := svc.Store().CorpusByTitle(ctx, args[0])
		if err != nil {
			return err
		}

		var paths []store.DocumentPath
		if lsAt != "" {
			at, err := parseAt(lsAt)
			if err != nil {
				return err
			}
			paths, err = svc.FilesystemAt(ctx, c.ID, at, user)
			if err != nil {
				return err
			}
		} else {
			if paths, err = svc.CurrentFilesystem(ctx, c.ID, user); err != nil {
				return err
			}
		}
		return printPaths(paths)
	},
}

var trashCmd = &cobra.Command{
	Use:   "trash <corpus>",
	Short: "List deleted document paths",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := svc.Store().CorpusByTitle(ctx, args[0])
		if err != nil {
			return err
		}
		paths, err := svc.DeletedPaths(ctx, c.ID, user)
		if err != nil {
			return err
		}
		return printPaths(paths)
	},
}

// parseAt accepts an RFC3339 timestamp or a lookback duration like "7d",
// returning Unix nanoseconds.
func parseAt(s string) (int64, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UnixNano(), nil
	}
	d, err := duration.Parse(s)
	if err != nil {
		return 0, fmt.Errorf("invalid --at %q (expected RFC3339 or a lookback like 7d)", s)
	}
	return time.Now().Add(-d).UnixNano(), nil
}

func printPaths(paths []store.DocumentPath) error {
	if JSON() {
		views := make([]store.PathJSON, len(paths))
		for i := range paths {
			views[i] = paths[i].ToJSON()
		}
		return PrintJSON(views)
	}
	switch lsFormat {
	case "long":
		return format.Long(out, paths)
	case "tree":
		return format.Tree(out, paths)
	default:
		return format.List(out, paths)
	}
}

func init() {
	lsCmd.Flags().StringVar(&lsAt, "at", "", "show the filesystem as of this time (RFC3339 or lookback like 7d)")
	lsCmd.Flags().StringVar(&lsFormat, "format", "list", "output format: list, long, or tree")
	trashCmd.Flags().StringVar(&lsFormat, "format", "list", "output format: list, long, or tree")
	rootCmd.AddCommand(lsCmd, trashCmd)
}

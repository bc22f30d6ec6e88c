// diffcmd.go implements `vellum diff`: compare two content versions.

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vellumdb/vellum/internal/diff"
)

var diffCmd = &cobra.Command{
	Use:   "diff <corpus> <path> <v1:v2>",
	Short: "Compare two content versions of a document",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		v1, v2, err := diff.ParseVersionRange(args[2])
		if err != nil {
			return err
		}
		c, err := svc.Store().CorpusByTitle(ctx, args[0])
		if err != nil {
			return err
		}
		r, err := svc.DiffVersions(ctx, c.ID, args[1], v1, v2, user)
		if err != nil {
			return err
		}
		if JSON() {
			return PrintJSON(r)
		}
		colour := term.IsTerminal(int(os.Stdout.Fd()))
		fmt.Fprint(out, r.Format(colour))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)
}

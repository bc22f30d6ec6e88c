// stats.go implements `vellum stats`: aggregate database statistics.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := svc.Stats(cmd.Context())
		if err != nil {
			return err
		}
		if JSON() {
			return PrintJSON(st)
		}
		fmt.Fprintf(out, "corpora           %d\n", st.Corpora)
		fmt.Fprintf(out, "documents         %d\n", st.Documents)
		fmt.Fprintf(out, "version trees     %d\n", st.VersionTrees)
		fmt.Fprintf(out, "active paths      %d\n", st.ActivePaths)
		fmt.Fprintf(out, "deleted paths     %d\n", st.DeletedPaths)
		fmt.Fprintf(out, "path events       %d\n", st.PathEvents)
		fmt.Fprintf(out, "structural sets   %d\n", st.StructuralSets)
		fmt.Fprintf(out, "annotations       %d\n", st.Annotations)
		fmt.Fprintf(out, "relationships     %d\n", st.Relationships)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

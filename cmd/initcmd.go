// initcmd.go implements `vellum init`: create the repository directory,
// database and blob root in the current directory.

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vellumdb/vellum/internal/blob"
	"github.com/vellumdb/vellum/internal/store"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialise a vellum repository in the current directory",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		path := databasePath()
		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("repository already exists at %s", path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create repository directory: %w", err)
		}

		st, err := store.Open(path)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Init(); err != nil {
			return err
		}
		if _, err := blob.NewFSStore(blobDir()); err != nil {
			return err
		}

		if JSON() {
			return PrintJSON(map[string]string{"database": path, "blobs": blobDir()})
		}
		fmt.Fprintf(out, "Initialised vellum repository: %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

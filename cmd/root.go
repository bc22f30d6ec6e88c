// root.go defines the root command and CLI execution entry point.
//
// Design: PersistentPreRunE resolves the acting user and opens the store
// lazily. Bootstrap commands (init, config) run without a store so a user
// can set up a repository before one exists; the noStoreCommands map
// controls which commands skip initialisation.

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vellumdb/vellum/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "vellum",
	Short: "Content-addressed document versioning engine",
	Long: `A dual-tree document store: content versions and path lifecycles are
tracked independently per corpus, with full history, time-travel views,
and shared structural annotations across corpora.`,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		loadedConfig = cfg

		if user == "" {
			user = cfg.User.Name
		}
		name := topLevelCmdName(cmd)
		if userRequiredCommands[name] && user == "" {
			return fmt.Errorf("user not configured\n\nRun: vellum config user.name \"Your Name\"")
		}
		if !noStoreCommands[name] {
			if err := openService(); err != nil {
				return err
			}
		}
		return nil
	},
}

// noStoreCommands bypass store initialisation so they work before init.
var noStoreCommands = map[string]bool{
	"init":    true,
	"config":  true,
	"help":    true,
	"version": true,
}

// userRequiredCommands write data and must record a creator.
var userRequiredCommands = map[string]bool{
	"import":   true,
	"mv":       true,
	"rm":       true,
	"restore":  true,
	"corpus":   true,
	"annotate": true,
	"migrate":  true,
}

// topLevelCmdName returns the direct child of root for a (possibly nested)
// command, so "vellum corpus create" maps to "corpus".
func topLevelCmdName(cmd *cobra.Command) string {
	for cmd.HasParent() && cmd.Parent().HasParent() {
		cmd = cmd.Parent()
	}
	return cmd.Name()
}

// Execute runs the root command and handles process lifecycle. Exit code 1
// indicates error.
func Execute() {
	err := rootCmd.Execute()
	closeService()
	if err != nil {
		os.Exit(1)
	}
}

// RootCmd returns the root command for tests.
func RootCmd() *cobra.Command {
	return rootCmd
}

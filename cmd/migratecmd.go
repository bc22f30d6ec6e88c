// migratecmd.go implements `vellum migrate` (factor legacy structural
// annotations into shared sets) and `vellum check` (invariant audit).

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vellumdb/vellum/internal/migrate"
	"github.com/vellumdb/vellum/internal/progress"
)

var (
	migrateDryRun  bool
	migrateBatch   int
	migrateWorkers int
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Move document-owned structural annotations into shared sets",
	Long: `Migrate factors parser-produced annotations out of individual documents
into content-hash-keyed structural sets, deduplicating them across corpora.
Safe to re-run; already-migrated documents are skipped. Documents without a
content hash are skipped unless --force keys them individually.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		spin := progress.NewSpinner("migrating")
		spin.Start()
		report, err := migrate.Run(cmd.Context(), svc.Store(), migrate.Options{
			BatchSize: migrateBatch,
			Workers:   migrateWorkers,
			DryRun:    migrateDryRun,
			Force:     force,
		})
		spin.Stop()
		if err != nil {
			return err
		}
		if JSON() {
			return PrintJSON(report)
		}
		verb := "migrated"
		if migrateDryRun {
			verb = "would migrate"
		}
		fmt.Fprintf(out, "%s %d of %d documents (%d annotations, %d relationships moved, %d skipped)\n",
			verb, report.Migrated, report.Scanned, report.AnnotationsMoved, report.RelationshipsMoved, report.Skipped)
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Audit the database for invariant violations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		report, err := migrate.Check(cmd.Context(), svc.Store())
		if err != nil {
			return err
		}
		if JSON() {
			if err := PrintJSON(report); err != nil {
				return err
			}
		} else {
			for _, issue := range report.Issues {
				fmt.Fprintf(out, "%s: %s\n", issue.Kind, issue.Detail)
			}
			fmt.Fprintf(out, "%d rows scanned, %d issues\n", report.Rows, len(report.Issues))
		}
		if !report.OK() {
			return fmt.Errorf("%d invariant violations found", len(report.Issues))
		}
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "report without writing")
	migrateCmd.Flags().IntVar(&migrateBatch, "batch", 100, "documents per batch")
	migrateCmd.Flags().IntVar(&migrateWorkers, "workers", 4, "concurrent migrations")
	rootCmd.AddCommand(migrateCmd, checkCmd)
}

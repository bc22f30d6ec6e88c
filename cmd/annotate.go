// annotate.go implements annotation commands: add, list, and similarity
// search over stored embeddings.

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vellumdb/vellum/internal/engine"
	"github.com/vellumdb/vellum/internal/store"
)

var (
	annPage        int
	annLabel       string
	annPublic      bool
	annAllVersions bool
	annDocument    int64
	annTopK        int
)

var annotateCmd = &cobra.Command{
	Use:   "annotate",
	Short: "Manage and query annotations",
}

var annotateAddCmd = &cobra.Command{
	Use:   "add <corpus> <path> <text>",
	Short: "Annotate the current version of a document",
	Args:  cobra.ExactArgs(3),
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

		a := store.Annotation{
			DocumentID: &node.DocumentID,
			CorpusID:   &c.ID,
			Page:       annPage,
			RawText:    args[2],
			Label:      annLabel,
			IsPublic:   annPublic,
			Creator:    user,
		}
		if err := svc.CreateAnnotation(ctx, &a); err != nil {
			return err
		}
		if err := svc.EmbedAnnotation(ctx, a.ID); err != nil {
			return fmt.Errorf("embed annotation: %w", err)
		}
		if JSON() {
			return PrintJSON(a)
		}
		fmt.Fprintf(out, "annotation %d on %s\n", a.ID, args[1])
		return nil
	},
}

var annotateListCmd = &cobra.Command{
	Use:   "list <corpus> [path]",
	Short: "List annotations visible to you",
	Long: `List shows annotations for a corpus, or for one document when a path is
given. Structural annotations from the shared set are always included;
other users' private annotations are not.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		q, err := annotationQuery(ctx, args)
		if err != nil {
			return err
		}
		views, err := svc.Annotations(ctx, *q)
		if err != nil {
			return err
		}
		if JSON() {
			return PrintJSON(views)
		}
		for _, v := range views {
			kind := "user"
			if v.Structural {
				kind = "structural"
			}
			fmt.Fprintf(out, "%-5d p%-4d %-10s %-12s %s\n", v.ID, v.Page, kind, v.Label, v.RawText)
		}
		return nil
	},
}

var annotateSearchCmd = &cobra.Command{
	Use:   "search <corpus> <text>",
	Short: "Rank annotations by similarity to a query",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		q, err := annotationQuery(ctx, args[:1])
		if err != nil {
			return err
		}
		views, err := svc.VectorSearch(ctx, engine.VectorQuery{
			Text:   args[1],
			TopK:   annTopK,
			Filter: *q,
		})
		if err != nil {
			return err
		}
		if JSON() {
			return PrintJSON(views)
		}
		for _, v := range views {
			fmt.Fprintf(out, "%.4f %-5d %s\n", v.Score, v.ID, v.RawText)
		}
		return nil
	},
}

// annotationQuery builds the shared query for list and search: corpus scope,
// optionally narrowed to the document at a path.
func annotationQuery(ctx context.Context, args []string) (*store.AnnotationQuery, error) {
	c, err := svc.Store().CorpusByTitle(ctx, args[0])
	if err != nil {
		return nil, err
	}
	q := store.AnnotationQuery{
		CorpusID:    &c.ID,
		Label:       annLabel,
		AllVersions: annAllVersions,
		Viewer:      user,
	}
	switch {
	case len(args) == 2:
		node, err := svc.Store().ActivePath(ctx, c.ID, args[1])
		if err != nil {
			return nil, err
		}
		q.DocumentID = &node.DocumentID
	case annDocument != 0:
		q.DocumentID = &annDocument
	}
	return &q, nil
}

func init() {
	annotateAddCmd.Flags().IntVar(&annPage, "page", 0, "page number")
	annotateAddCmd.Flags().StringVar(&annLabel, "label", "", "annotation label")
	annotateAddCmd.Flags().BoolVar(&annPublic, "public", false, "visible to other users")
	annotateListCmd.Flags().StringVar(&annLabel, "label", "", "filter by label")
	annotateListCmd.Flags().BoolVar(&annAllVersions, "all-versions", false, "include annotations on superseded versions")
	annotateListCmd.Flags().Int64Var(&annDocument, "document", 0, "filter by document id")
	annotateSearchCmd.Flags().IntVar(&annTopK, "top", 10, "number of results")
	annotateCmd.AddCommand(annotateAddCmd, annotateListCmd, annotateSearchCmd)
	rootCmd.AddCommand(annotateCmd)
}

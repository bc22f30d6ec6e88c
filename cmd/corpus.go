// corpus.go implements corpus and folder management commands.

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vellumdb/vellum/internal/store"
)

var corpusPublic bool

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Manage corpora and their folders",
}

var corpusCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a corpus",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := svc.Store().CreateCorpus(cmd.Context(), args[0], user, corpusPublic)
		if err != nil {
			return err
		}
		if JSON() {
			return PrintJSON(c)
		}
		fmt.Fprintf(out, "Created corpus %q (id %d)\n", c.Title, c.ID)
		return nil
	},
}

var corpusListCmd = &cobra.Command{
	Use:   "list",
	Short: "List corpora",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		corpora, err := svc.Store().ListCorpora(cmd.Context())
		if err != nil {
			return err
		}
		if JSON() {
			return PrintJSON(corpora)
		}
		for _, c := range corpora {
			visibility := "private"
			if c.IsPublic {
				visibility = "public"
			}
			fmt.Fprintf(out, "%-4d %-10s %s\n", c.ID, visibility, c.Title)
		}
		return nil
	},
}

var corpusMkdirCmd = &cobra.Command{
	Use:   "mkdir <corpus> <folder>",
	Short: "Create a folder, nested with /",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := svc.Store().CorpusByTitle(ctx, args[0])
		if err != nil {
			return err
		}

		// Create each path segment that does not exist yet.
		var parent *int64
		for _, name := range strings.Split(strings.Trim(args[1], "/"), "/") {
			f, err := findFolder(ctx, c.ID, parent, name)
			if err != nil {
				return err
			}
			if f == nil {
				if f, err = svc.Store().CreateFolder(ctx, c.ID, parent, name, user); err != nil {
					return err
				}
			}
			parent = &f.ID
		}

		if JSON() {
			return PrintJSON(map[string]any{"corpus": c.ID, "folder": *parent})
		}
		fmt.Fprintf(out, "Created folder %s in %q\n", args[1], c.Title)
		return nil
	},
}

var corpusRmdirCmd = &cobra.Command{
	Use:   "rmdir <corpus> <folder>",
	Short: "Delete a folder",
	Long: `Rmdir deletes a folder and its child folders. Paths that lived in the
folder keep their path strings; only the folder reference is cleared.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, f, err := resolveFolder(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		if err := svc.Store().DeleteFolder(ctx, f.ID); err != nil {
			return err
		}
		if JSON() {
			return PrintJSON(map[string]any{"corpus": c.ID, "folder": f.ID})
		}
		fmt.Fprintf(out, "Deleted folder %s from %q\n", args[1], c.Title)
		return nil
	},
}

var corpusRenameCmd = &cobra.Command{
	Use:   "rename <corpus> <folder> <new-name>",
	Short: "Rename a folder",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, f, err := resolveFolder(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		if err := svc.Store().RenameFolder(ctx, f.ID, args[2]); err != nil {
			return err
		}
		if JSON() {
			return PrintJSON(map[string]any{"corpus": c.ID, "folder": f.ID, "name": args[2]})
		}
		fmt.Fprintf(out, "Renamed folder %s to %s in %q\n", args[1], args[2], c.Title)
		return nil
	},
}

// resolveFolder walks a /-separated folder path within a corpus.
func resolveFolder(ctx context.Context, corpusTitle, folderPath string) (*store.Corpus, *store.Folder, error) {
	c, err := svc.Store().CorpusByTitle(ctx, corpusTitle)
	if err != nil {
		return nil, nil, err
	}
	var parent *int64
	var f *store.Folder
	for _, name := range strings.Split(strings.Trim(folderPath, "/"), "/") {
		if f, err = findFolder(ctx, c.ID, parent, name); err != nil {
			return nil, nil, err
		}
		if f == nil {
			return nil, nil, fmt.Errorf("%w: folder %s in corpus %q", store.ErrNotFound, folderPath, corpusTitle)
		}
		parent = &f.ID
	}
	return c, f, nil
}

// findFolder looks up a folder by (parent, name) within a corpus, returning
// nil when absent.
func findFolder(ctx context.Context, corpusID int64, parentID *int64, name string) (*store.Folder, error) {
	folders, err := svc.Store().ListFolders(ctx, corpusID)
	if err != nil {
		return nil, err
	}
	for i := range folders {
		f := &folders[i]
		if f.Name != name {
			continue
		}
		if (f.ParentID == nil) != (parentID == nil) {
			continue
		}
		if f.ParentID == nil || *f.ParentID == *parentID {
			return f, nil
		}
	}
	return nil, nil
}

func init() {
	corpusCreateCmd.Flags().BoolVar(&corpusPublic, "public", false, "make the corpus readable by everyone")
	corpusCmd.AddCommand(corpusCreateCmd, corpusListCmd, corpusMkdirCmd, corpusRmdirCmd, corpusRenameCmd)
	rootCmd.AddCommand(corpusCmd)
}

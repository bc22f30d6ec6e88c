// Package format provides output formatting utilities for CLI display.
//
// Centralises formatting logic so that command implementations focus on
// business logic while this package handles presentation concerns like
// column alignment and tree rendering.
package format

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/vellumdb/vellum/internal/store"
)

// List prints paths in simple list format, one per line with the version.
func List(w io.Writer, paths []store.DocumentPath) error {
	for _, p := range paths {
		deleted := ""
		if p.IsDeleted {
			deleted = "[deleted] "
		}
		fmt.Fprintf(w, "v%-3d %s%s\n", p.VersionNumber, deleted, p.Path)
	}
	return nil
}

// Long prints paths in long format with version, date, and creator.
func Long(w io.Writer, paths []store.DocumentPath) error {
	if len(paths) == 0 {
		return nil
	}

	// Find max path length for alignment
	maxPath := 4 // minimum "PATH"
	for _, p := range paths {
		if len(p.Path) > maxPath {
			maxPath = len(p.Path)
		}
	}

	fmt.Fprintf(w, "%4s  %-*s  %-16s  %s\n", "VER", maxPath, "PATH", "UPDATED", "CREATOR")

	for _, p := range paths {
		date := time.Unix(0, p.CreatedAt).Format("2006-01-02 15:04")
		creator := p.Creator
		if creator == "" {
			creator = "-"
		}
		deleted := ""
		if p.IsDeleted {
			deleted = " [deleted]"
		}
		fmt.Fprintf(w, "v%-3d  %-*s  %s  %s%s\n", p.VersionNumber, maxPath, p.Path, date, creator, deleted)
	}
	return nil
}

// Tree prints paths as a directory tree.
func Tree(w io.Writer, paths []store.DocumentPath) error {
	if len(paths) == 0 {
		return nil
	}

	// Build tree structure
	type node struct {
		name     string
		children map[string]*node
		isDoc    bool
		deleted  bool
	}

	root := &node{children: make(map[string]*node)}

	for _, p := range paths {
		parts := strings.Split(p.Path, "/")
		current := root

		for i, part := range parts {
			if current.children[part] == nil {
				current.children[part] = &node{
					name:     part,
					children: make(map[string]*node),
				}
			}
			current = current.children[part]
			if i == len(parts)-1 {
				current.isDoc = true
				current.deleted = p.IsDeleted
			}
		}
	}

	// Print tree
	var printNode func(n *node, prefix string)
	printNode = func(n *node, prefix string) {
		// Get sorted children
		names := make([]string, 0, len(n.children))
		for name := range n.children {
			names = append(names, name)
		}
		sort.Strings(names)

		for i, name := range names {
			child := n.children[name]
			last := i == len(names)-1

			connector := "├── "
			if last {
				connector = "└── "
			}

			suffix := ""
			if !child.isDoc && len(child.children) > 0 {
				suffix = "/"
			}
			if child.deleted {
				suffix += " [deleted]"
			}

			fmt.Fprintf(w, "%s%s%s%s\n", prefix, connector, name, suffix)

			pfx := prefix
			if last {
				pfx += "    "
			} else {
				pfx += "│   "
			}

			if len(child.children) > 0 {
				printNode(child, pfx)
			}
		}
	}

	printNode(root, "")
	return nil
}

// History prints lifecycle events oldest-first, one per line.
func History(w io.Writer, events []store.PathEvent) error {
	for _, e := range events {
		t := time.Unix(0, e.Node.CreatedAt)
		creator := e.Node.Creator
		if creator == "" {
			creator = "-"
		}
		fmt.Fprintf(w, "%-9s v%-3d %s  %-16s  %s\n",
			e.Action,
			e.Node.VersionNumber,
			t.Format("2006-01-02 15:04"),
			creator,
			e.Node.Path,
		)
	}
	return nil
}

// ContentChain prints a content lineage oldest-first with truncated hashes.
func ContentChain(w io.Writer, chain []store.Document) error {
	for i, d := range chain {
		hash := "-"
		if d.PDFFileHash != nil && len(*d.PDFFileHash) >= 12 {
			hash = (*d.PDFFileHash)[:12]
		}
		fmt.Fprintf(w, "v%-3d %s  %s  %s\n", i+1, hash,
			time.Unix(0, d.CreatedAt).Format("2006-01-02 15:04"), d.Creator)
	}
	return nil
}

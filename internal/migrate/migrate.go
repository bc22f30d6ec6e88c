// Package migrate moves legacy document-owned structural annotations into
// shared structural sets, and audits the database for invariant violations.
//
// The migration exists for databases populated before structural sets: every
// document then carried its own copy of parser output, duplicated across
// corpora holding the same content. Run factors those rows into one
// content-hash-keyed set per distinct content and links the documents.
package migrate

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/vellumdb/vellum/internal/store"
)

// Options configures a migration run.
type Options struct {
	// BatchSize bounds how many documents are claimed per round trip.
	BatchSize int
	// Workers bounds concurrent per-document migrations. Writers still
	// serialise inside SQLite; concurrency overlaps the per-document reads.
	Workers int
	// DryRun reports what would migrate without writing.
	DryRun bool
	// Force migrates documents without a content hash under a synthetic
	// per-document key instead of skipping them.
	Force bool
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = 100
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	return o
}

// Report summarises a migration run.
type Report struct {
	Scanned            int64 `json:"scanned"`
	Migrated           int64 `json:"migrated"`
	Skipped            int64 `json:"skipped"`
	AnnotationsMoved   int64 `json:"annotations_moved"`
	RelationshipsMoved int64 `json:"relationships_moved"`
}

// Run migrates all documents not yet linked to a structural set. Batches
// advance on a keyset cursor, so documents skipped in one batch (hashless,
// without force) are never re-selected. Idempotent: already-linked documents
// are never selected, so an interrupted run picks up where it stopped.
func Run(ctx context.Context, st *store.SQLiteStore, opts Options) (*Report, error) {
	opts = opts.withDefaults()
	var report Report
	var after int64

	for {
		ids, err := unmigratedBatch(ctx, st, after, opts.BatchSize)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return &report, nil
		}
		after = ids[len(ids)-1]
		report.Scanned += int64(len(ids))

		if opts.DryRun {
			report.Migrated += int64(len(ids))
			continue
		}

		results := make([]result, len(ids))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Workers)
		for i, id := range ids {
			i, id := i, id
			g.Go(func() error {
				migrated, anns, rels, err := st.MigrateDocument(gctx, id, opts.Force)
				if err != nil {
					return fmt.Errorf("migrate document %d: %w", id, err)
				}
				results[i] = result{migrated, anns, rels}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		for _, r := range results {
			if r.migrated {
				report.Migrated++
				report.AnnotationsMoved += r.anns
				report.RelationshipsMoved += r.rels
			} else {
				report.Skipped++
			}
		}
	}
}

type result struct {
	migrated   bool
	anns, rels int64
}

func unmigratedBatch(ctx context.Context, st *store.SQLiteStore, after int64, limit int) ([]int64, error) {
	rows, err := st.DB().QueryContext(ctx, `
		SELECT id FROM documents
		WHERE structural_set_id IS NULL AND id > ?
		ORDER BY id LIMIT ?`, after, limit)
	if err != nil {
		return nil, fmt.Errorf("select unmigrated documents: %w", err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("select unmigrated documents: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

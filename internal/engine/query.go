// query.go is the engine's read surface. Every read applies the permission
// gate first: a principal without read access on the corpus gets empty
// results, never an error, so callers cannot distinguish "no such corpus"
// from "not yours".

package engine

import (
	"context"
	"errors"

	"github.com/vellumdb/vellum/internal/authz"
	"github.com/vellumdb/vellum/internal/store"
)

// CurrentFilesystem lists the active paths of a corpus.
func (s *Service) CurrentFilesystem(ctx context.Context, corpusID int64, principal string) ([]store.DocumentPath, error) {
	if !s.canReadCorpus(ctx, principal, corpusID) {
		return nil, nil
	}
	return s.store.CurrentFilesystem(ctx, corpusID)
}

// FilesystemAt reconstructs the corpus filesystem as of t (Unix nanoseconds).
func (s *Service) FilesystemAt(ctx context.Context, corpusID int64, t int64, principal string) ([]store.DocumentPath, error) {
	if !s.canReadCorpus(ctx, principal, corpusID) {
		return nil, nil
	}
	return s.store.FilesystemAt(ctx, corpusID, t)
}

// DeletedPaths lists the trash of a corpus.
func (s *Service) DeletedPaths(ctx context.Context, corpusID int64, principal string) ([]store.DocumentPath, error) {
	if !s.canReadCorpus(ctx, principal, corpusID) {
		return nil, nil
	}
	return s.store.DeletedPaths(ctx, corpusID)
}

// ContentHistory returns the content lineage ending at documentID,
// oldest first.
func (s *Service) ContentHistory(ctx context.Context, documentID int64, principal string) ([]store.Document, error) {
	doc, err := s.store.Document(ctx, documentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !s.oracle.CanRead(ctx, principal, documentObject(doc)) {
		return nil, nil
	}
	return s.store.ContentHistory(ctx, documentID)
}

// PathHistory returns the lifecycle events of the line ending at the node,
// oldest first.
func (s *Service) PathHistory(ctx context.Context, pathNodeID int64, principal string) ([]store.PathEvent, error) {
	node, err := s.store.PathNode(ctx, pathNodeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !s.canReadCorpus(ctx, principal, node.CorpusID) {
		return nil, nil
	}
	return s.store.PathHistory(ctx, pathNodeID)
}

// TrulyDeleted reports whether the document has no active path in the
// corpus. A predicate, not an action: nothing is reclaimed.
func (s *Service) TrulyDeleted(ctx context.Context, documentID, corpusID int64, principal string) (bool, error) {
	if !s.canReadCorpus(ctx, principal, corpusID) {
		return false, nil
	}
	return s.store.IsContentTrulyDeleted(ctx, documentID, corpusID)
}

// Stats returns aggregate database statistics.
func (s *Service) Stats(ctx context.Context) (*store.Stats, error) {
	return s.store.Stats(ctx)
}

// AnnotationView is an annotation stamped with the caller's permission
// flags. Flags are computed once per query at the (document, corpus, user)
// level; structural rows never carry write flags, whatever the caller may
// do to the document.
type AnnotationView struct {
	store.Annotation
	CanRead   bool `json:"can_read"`
	CanUpdate bool `json:"can_update"`
	CanDelete bool `json:"can_delete"`
}

// RelationshipView is the relationship counterpart of AnnotationView.
type RelationshipView struct {
	store.Relationship
	CanRead   bool `json:"can_read"`
	CanUpdate bool `json:"can_update"`
	CanDelete bool `json:"can_delete"`
}

// Annotations returns the annotations matching q, stamped with permission
// flags for q.Viewer.
func (s *Service) Annotations(ctx context.Context, q store.AnnotationQuery) ([]AnnotationView, error) {
	if ok, err := s.canReadScope(ctx, q); !ok || err != nil {
		return nil, err
	}
	flags, err := s.queryFlags(ctx, q)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	anns, err := s.store.Annotations(ctx, q)
	if err != nil {
		return nil, err
	}
	views := make([]AnnotationView, len(anns))
	for i, a := range anns {
		views[i] = AnnotationView{Annotation: a, CanRead: true}
		if !a.Structural {
			views[i].CanUpdate = flags.update
			views[i].CanDelete = flags.delete
		}
	}
	return views, nil
}

// Relationships returns the relationships matching q, stamped with
// permission flags for q.Viewer.
func (s *Service) Relationships(ctx context.Context, q store.AnnotationQuery) ([]RelationshipView, error) {
	if ok, err := s.canReadScope(ctx, q); !ok || err != nil {
		return nil, err
	}
	flags, err := s.queryFlags(ctx, q)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rels, err := s.store.Relationships(ctx, q)
	if err != nil {
		return nil, err
	}
	views := make([]RelationshipView, len(rels))
	for i, r := range rels {
		views[i] = RelationshipView{Relationship: r, CanRead: true}
		if !r.Structural {
			views[i].CanUpdate = flags.update
			views[i].CanDelete = flags.delete
		}
	}
	return views, nil
}

type writeFlags struct {
	update, delete bool
}

// queryFlags computes the caller's write flags once for a query scope. The
// flags attach to the queried document when one is named, otherwise to the
// corpus.
func (s *Service) queryFlags(ctx context.Context, q store.AnnotationQuery) (writeFlags, error) {
	var obj authz.Object
	switch {
	case q.DocumentID != nil:
		doc, err := s.store.Document(ctx, *q.DocumentID)
		if err != nil {
			return writeFlags{}, err
		}
		obj = documentObject(doc)
	case q.CorpusID != nil:
		var err error
		obj, err = s.corpusObject(ctx, *q.CorpusID)
		if err != nil {
			return writeFlags{}, err
		}
	default:
		return writeFlags{}, nil
	}
	return writeFlags{
		update: s.oracle.CanWrite(ctx, q.Viewer, obj),
		delete: s.oracle.CanDelete(ctx, q.Viewer, obj),
	}, nil
}

// canReadScope gates a query on its scope object: the corpus when one is
// named, otherwise the queried document. Unknown scopes read as denied,
// keeping absence and inaccessibility identical.
func (s *Service) canReadScope(ctx context.Context, q store.AnnotationQuery) (bool, error) {
	switch {
	case q.CorpusID != nil:
		return s.canReadCorpus(ctx, q.Viewer, *q.CorpusID), nil
	case q.DocumentID != nil:
		doc, err := s.store.Document(ctx, *q.DocumentID)
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return s.oracle.CanRead(ctx, q.Viewer, documentObject(doc)), nil
	}
	return true, nil
}

func (s *Service) canReadCorpus(ctx context.Context, principal string, corpusID int64) bool {
	obj, err := s.corpusObject(ctx, corpusID)
	if err != nil {
		return false
	}
	return s.oracle.CanRead(ctx, principal, obj)
}

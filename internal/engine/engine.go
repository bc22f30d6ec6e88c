// Package engine is the operation gateway: the single entry point callers
// use for document operations. It owns the collaborators the store must not
// know about (blob storage, the permission oracle, the embedder), applies
// permission gates, and keeps blob I/O and embedding generation outside
// database transactions.
//
// Permission semantics: denied writes fail with ErrPermissionDenied; denied
// reads return empty collections, deliberately conflating absence with
// inaccessibility.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/phuslu/log"

	"github.com/vellumdb/vellum/internal/authz"
	"github.com/vellumdb/vellum/internal/blob"
	"github.com/vellumdb/vellum/internal/embedder"
	"github.com/vellumdb/vellum/internal/hasher"
	"github.com/vellumdb/vellum/internal/store"
	"github.com/vellumdb/vellum/internal/validate"
)

// ErrPermissionDenied indicates the principal may not perform a write. Reads
// never produce it; they come back empty instead.
var ErrPermissionDenied = errors.New("permission denied")

// Service wires the store to its collaborators and applies the permission
// gate. It holds no mutable state beyond the connections; all consistency
// comes from the store's transactions.
type Service struct {
	store  *store.SQLiteStore
	blobs  blob.Store
	oracle authz.Oracle
	embed  embedder.Embedder // nil disables text vector queries
	log    log.Logger

	maxPath    int
	maxContent int64
}

// Option configures a Service.
type Option func(*Service)

// WithOracle sets the permission oracle. Defaults to authz.AllowAll.
func WithOracle(o authz.Oracle) Option {
	return func(s *Service) { s.oracle = o }
}

// WithEmbedder enables text vector queries.
func WithEmbedder(e embedder.Embedder) Option {
	return func(s *Service) { s.embed = e }
}

// WithLogger sets the structured logger.
func WithLogger(l log.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithLimits sets the path length and content size limits. Zero keeps the
// corresponding default.
func WithLimits(maxPath int, maxContent int64) Option {
	return func(s *Service) {
		if maxPath > 0 {
			s.maxPath = maxPath
		}
		if maxContent > 0 {
			s.maxContent = maxContent
		}
	}
}

// New builds a Service over an opened store and blob store.
func New(st *store.SQLiteStore, blobs blob.Store, opts ...Option) *Service {
	s := &Service{
		store:      st,
		blobs:      blobs,
		oracle:     authz.AllowAll{},
		log:        log.Logger{Level: log.InfoLevel},
		maxPath:    1024,
		maxContent: 500 << 20,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store exposes the underlying store for tooling (migrations, audits).
func (s *Service) Store() *store.SQLiteStore { return s.store }

// ImportRequest carries one import.
type ImportRequest struct {
	CorpusID  int64
	Path      string
	Content   []byte
	Creator   string
	FolderID  *int64
	Title     string
	FileType  string
	PageCount int
}

// Import records content at (corpus, path). Hashing and blob upload happen
// before the transaction begins, so the write lock covers only row work.
func (s *Service) Import(ctx context.Context, req ImportRequest) (*store.ImportResult, error) {
	if err := validate.Content(req.Content, s.maxContent); err != nil {
		return nil, err
	}
	if err := s.requireWrite(ctx, req.Creator, req.CorpusID); err != nil {
		return nil, err
	}

	hash := hasher.Sum(req.Content)
	handle, err := s.blobs.Put(ctx, bytes.NewReader(req.Content))
	if err != nil {
		return nil, fmt.Errorf("store content blob: %w", err)
	}

	res, err := s.store.Import(ctx, store.ImportParams{
		CorpusID:   req.CorpusID,
		Path:       req.Path,
		Hash:       hash,
		BlobHandle: handle,
		Creator:    req.Creator,
		FolderID:   req.FolderID,
		Title:      req.Title,
		FileType:   req.FileType,
		PageCount:  req.PageCount,
		MaxPath:    s.maxPath,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("corpus", req.CorpusID).
		Str("path", res.PathNode.Path).
		Str("status", string(res.Status)).
		Int("version", res.PathNode.VersionNumber).
		Msg("import")
	return res, nil
}

// Move relocates an active path. Folder placement follows the FolderChange.
func (s *Service) Move(ctx context.Context, corpusID int64, oldPath, newPath, principal string, folder store.FolderChange) (*store.DocumentPath, error) {
	if err := s.requireWrite(ctx, principal, corpusID); err != nil {
		return nil, err
	}
	node, err := s.store.Move(ctx, corpusID, oldPath, newPath, principal, folder, s.maxPath)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("corpus", corpusID).Str("from", oldPath).Str("to", node.Path).Msg("move")
	return node, nil
}

// Delete soft-deletes an active path; the content and its history survive.
func (s *Service) Delete(ctx context.Context, corpusID int64, path, principal string) (*store.DocumentPath, error) {
	if err := s.requireDelete(ctx, principal, corpusID); err != nil {
		return nil, err
	}
	node, err := s.store.Delete(ctx, corpusID, path, principal, s.maxPath)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("corpus", corpusID).Str("path", path).Msg("delete")
	return node, nil
}

// Restore revives a deleted path.
func (s *Service) Restore(ctx context.Context, corpusID int64, path, principal string) (*store.DocumentPath, error) {
	if err := s.requireWrite(ctx, principal, corpusID); err != nil {
		return nil, err
	}
	node, err := s.store.Restore(ctx, corpusID, path, principal, s.maxPath)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("corpus", corpusID).Str("path", path).Msg("restore")
	return node, nil
}

// ReadContent streams the content bytes of a document version.
func (s *Service) ReadContent(ctx context.Context, documentID int64, principal string) (io.ReadCloser, error) {
	doc, err := s.store.Document(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !s.oracle.CanRead(ctx, principal, documentObject(doc)) {
		return nil, store.ErrNotFound
	}
	if doc.PDFFile == "" {
		return nil, fmt.Errorf("%w: document %d has no content blob", store.ErrNotFound, documentID)
	}
	return s.blobs.Open(ctx, doc.PDFFile)
}

// requireWrite gates a mutation on the corpus. Unknown corpora surface as
// ErrNotFound; denied principals as ErrPermissionDenied.
func (s *Service) requireWrite(ctx context.Context, principal string, corpusID int64) error {
	obj, err := s.corpusObject(ctx, corpusID)
	if err != nil {
		return err
	}
	if !s.oracle.CanWrite(ctx, principal, obj) {
		return fmt.Errorf("%w: write to corpus %d", ErrPermissionDenied, corpusID)
	}
	return nil
}

func (s *Service) requireDelete(ctx context.Context, principal string, corpusID int64) error {
	obj, err := s.corpusObject(ctx, corpusID)
	if err != nil {
		return err
	}
	if !s.oracle.CanDelete(ctx, principal, obj) {
		return fmt.Errorf("%w: delete in corpus %d", ErrPermissionDenied, corpusID)
	}
	return nil
}

func (s *Service) corpusObject(ctx context.Context, corpusID int64) (authz.Object, error) {
	c, err := s.store.Corpus(ctx, corpusID)
	if err != nil {
		return authz.Object{}, err
	}
	return authz.Object{Kind: authz.KindCorpus, ID: c.ID, CreatorID: c.Creator, IsPublic: c.IsPublic}, nil
}

func documentObject(d *store.Document) authz.Object {
	return authz.Object{Kind: authz.KindDocument, ID: d.ID, CreatorID: d.Creator}
}

// scan.go centralises row scanning for the store's entities.
//
// Each entity has one canonical column list constant and one scan function
// shared by single-row and multi-row queries via the scanner interface.
// Keeping the column order in exactly one place prevents the classic drift
// between SELECT lists and Scan argument lists.

package store

import (
	"database/sql"
	"errors"
	"fmt"
)

const docCols = `id, title, file_type, pdf_file, txt_extract_file, pawls_parse_file,
	md_summary_file, icon, pdf_file_hash, page_count, version_tree_id, parent_id,
	is_current, source_document_id, structural_set_id, creator, created_at, modified_at`

const pathCols = `id, document_id, corpus_id, folder_id, path, version_number,
	parent_id, is_current, is_deleted, creator, created_at`

const annCols = `id, document_id, structural_set_id, corpus_id, page, raw_text,
	label, structural, is_public, creator, created_at, modified_at`

const relCols = `id, document_id, structural_set_id, corpus_id, label,
	structural, is_public, creator, created_at, modified_at`

const setCols = `id, content_hash, parser_name, parser_version, page_count,
	token_count, pawls_parse_file, txt_extract_file, creator, created_at, modified_at`

func scanDocument(sc scanner) (Document, error) {
	var d Document
	var hash sql.NullString
	var parent, source, set sql.NullInt64

	err := sc.Scan(&d.ID, &d.Title, &d.FileType, &d.PDFFile, &d.TxtExtractFile,
		&d.PawlsParseFile, &d.MDSummaryFile, &d.Icon, &hash, &d.PageCount,
		&d.VersionTreeID, &parent, &d.IsCurrent, &source, &set,
		&d.Creator, &d.CreatedAt, &d.ModifiedAt)
	if err != nil {
		return d, err
	}

	if hash.Valid {
		d.PDFFileHash = &hash.String
	}
	if parent.Valid {
		d.ParentID = &parent.Int64
	}
	if source.Valid {
		d.SourceDocumentID = &source.Int64
	}
	if set.Valid {
		d.StructuralSetID = &set.Int64
	}
	return d, nil
}

func scanPath(sc scanner) (DocumentPath, error) {
	var p DocumentPath
	var folder, parent sql.NullInt64

	err := sc.Scan(&p.ID, &p.DocumentID, &p.CorpusID, &folder, &p.Path,
		&p.VersionNumber, &parent, &p.IsCurrent, &p.IsDeleted,
		&p.Creator, &p.CreatedAt)
	if err != nil {
		return p, err
	}

	if folder.Valid {
		p.FolderID = &folder.Int64
	}
	if parent.Valid {
		p.ParentID = &parent.Int64
	}
	return p, nil
}

func scanAnnotation(sc scanner) (Annotation, error) {
	var a Annotation
	var doc, set, corpus sql.NullInt64

	err := sc.Scan(&a.ID, &doc, &set, &corpus, &a.Page, &a.RawText,
		&a.Label, &a.Structural, &a.IsPublic, &a.Creator, &a.CreatedAt, &a.ModifiedAt)
	if err != nil {
		return a, err
	}

	if doc.Valid {
		a.DocumentID = &doc.Int64
	}
	if set.Valid {
		a.StructuralSetID = &set.Int64
	}
	if corpus.Valid {
		a.CorpusID = &corpus.Int64
	}
	return a, nil
}

func scanRelationship(sc scanner) (Relationship, error) {
	var r Relationship
	var doc, set, corpus sql.NullInt64

	err := sc.Scan(&r.ID, &doc, &set, &corpus, &r.Label,
		&r.Structural, &r.IsPublic, &r.Creator, &r.CreatedAt, &r.ModifiedAt)
	if err != nil {
		return r, err
	}

	if doc.Valid {
		r.DocumentID = &doc.Int64
	}
	if set.Valid {
		r.StructuralSetID = &set.Int64
	}
	if corpus.Valid {
		r.CorpusID = &corpus.Int64
	}
	return r, nil
}

func scanStructuralSet(sc scanner) (StructuralSet, error) {
	var t StructuralSet
	err := sc.Scan(&t.ID, &t.ContentHash, &t.ParserName, &t.ParserVersion,
		&t.PageCount, &t.TokenCount, &t.PawlsParseFile, &t.TxtExtractFile,
		&t.Creator, &t.CreatedAt, &t.ModifiedAt)
	return t, err
}

func scanCorpus(sc scanner) (Corpus, error) {
	var c Corpus
	err := sc.Scan(&c.ID, &c.Title, &c.Creator, &c.IsPublic, &c.CreatedAt, &c.ModifiedAt)
	return c, err
}

func scanFolder(sc scanner) (Folder, error) {
	var f Folder
	var parent sql.NullInt64
	err := sc.Scan(&f.ID, &f.CorpusID, &parent, &f.Name, &f.Creator, &f.CreatedAt, &f.ModifiedAt)
	if err != nil {
		return f, err
	}
	if parent.Valid {
		f.ParentID = &parent.Int64
	}
	return f, nil
}

// one converts sql.ErrNoRows to ErrNotFound for consistent error handling.
func one[T any](v T, err error) (*T, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}
	return &v, nil
}

// collect iterates query results through scan, accumulating rows.
func collect[T any](rows *sql.Rows, scan func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

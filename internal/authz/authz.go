// Package authz defines the permission boundary. The engine consults an
// Oracle before every operation: writes that are denied fail with an
// explicit error, reads that are denied return empty collections instead of
// "not found", deliberately conflating absence with inaccessibility.
package authz

import "context"

// Object identifies a permission target. Kind distinguishes the tables an
// oracle may scope rules to.
type Object struct {
	Kind      Kind
	ID        int64
	CreatorID string
	IsPublic  bool
}

// Kind enumerates permission target kinds.
type Kind string

const (
	KindCorpus     Kind = "corpus"
	KindDocument   Kind = "document"
	KindAnnotation Kind = "annotation"
)

// Oracle answers permission questions for a principal over an object.
// The engine computes flags once per (document, corpus, user) and stamps
// them onto query results; lower layers never consult the oracle.
type Oracle interface {
	CanRead(ctx context.Context, principal string, obj Object) bool
	CanWrite(ctx context.Context, principal string, obj Object) bool
	CanDelete(ctx context.Context, principal string, obj Object) bool
}

// AllowAll grants everything. Used by local tooling and tests where the
// platform's permission service is not in play.
type AllowAll struct{}

var _ Oracle = AllowAll{}

func (AllowAll) CanRead(context.Context, string, Object) bool   { return true }
func (AllowAll) CanWrite(context.Context, string, Object) bool  { return true }
func (AllowAll) CanDelete(context.Context, string, Object) bool { return true }

// OwnerPublic grants reads on public objects to everyone, and full access to
// the object's creator. Anonymous principals (empty string) only see public
// objects.
type OwnerPublic struct{}

var _ Oracle = OwnerPublic{}

func (OwnerPublic) CanRead(_ context.Context, principal string, obj Object) bool {
	return obj.IsPublic || (principal != "" && principal == obj.CreatorID)
}

func (OwnerPublic) CanWrite(_ context.Context, principal string, obj Object) bool {
	return principal != "" && principal == obj.CreatorID
}

func (OwnerPublic) CanDelete(_ context.Context, principal string, obj Object) bool {
	return principal != "" && principal == obj.CreatorID
}

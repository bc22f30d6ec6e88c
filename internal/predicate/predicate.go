// Package predicate provides a small predicate AST for composing SQL WHERE
// clauses. Query code builds filters as explicit values (And/Or/Eq/In/IsNull)
// instead of string concatenation scattered across call sites, so
// version-awareness and visibility rules compose as predicate transformers.
//
// The rendered SQL uses ? placeholders and returns arguments positionally,
// matching database/sql conventions.
package predicate

import (
	"fmt"
	"strings"
)

// Pred is a composable SQL predicate. Render writes the SQL fragment to b
// and appends its placeholder arguments to args.
type Pred interface {
	Render(b *strings.Builder, args *[]any)
}

type and struct{ preds []Pred }
type or struct{ preds []Pred }
type not struct{ pred Pred }

type cmp struct {
	col, op string
	val     any
}

type in struct {
	col  string
	vals []any
}

type isNull struct {
	col     string
	negated bool
}

type raw struct {
	sql  string
	args []any
}

// And combines predicates conjunctively. Nil entries are skipped; an empty
// And renders as a tautology so optional filters compose without branching.
func And(preds ...Pred) Pred { return and{compact(preds)} }

// Or combines predicates disjunctively.
func Or(preds ...Pred) Pred { return or{compact(preds)} }

// Not negates a predicate.
func Not(p Pred) Pred { return not{p} }

// Eq renders col = ?.
func Eq(col string, val any) Pred { return cmp{col, "=", val} }

// Ne renders col != ?.
func Ne(col string, val any) Pred { return cmp{col, "!=", val} }

// Lte renders col <= ?.
func Lte(col string, val any) Pred { return cmp{col, "<=", val} }

// In renders col IN (?, …). An empty value list renders as FALSE, matching
// set semantics (membership in the empty set).
func In(col string, vals ...any) Pred { return in{col, vals} }

// IsNull renders col IS NULL.
func IsNull(col string) Pred { return isNull{col, false} }

// NotNull renders col IS NOT NULL.
func NotNull(col string) Pred { return isNull{col, true} }

// Raw embeds a hand-written SQL fragment with its arguments. Use for
// correlated subqueries the AST does not model.
func Raw(sql string, args ...any) Pred { return raw{sql, args} }

// Where renders p as a complete WHERE clause (with leading space), or an
// empty string when p is nil.
func Where(p Pred) (string, []any) {
	if p == nil {
		return "", nil
	}
	var b strings.Builder
	var args []any
	p.Render(&b, &args)
	return " WHERE " + b.String(), args
}

func compact(preds []Pred) []Pred {
	out := preds[:0]
	for _, p := range preds {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func renderJoined(b *strings.Builder, args *[]any, preds []Pred, sep string) {
	b.WriteString("(")
	for i, p := range preds {
		if i > 0 {
			b.WriteString(sep)
		}
		p.Render(b, args)
	}
	b.WriteString(")")
}

func (a and) Render(b *strings.Builder, args *[]any) {
	if len(a.preds) == 0 {
		b.WriteString("1=1")
		return
	}
	renderJoined(b, args, a.preds, " AND ")
}

func (o or) Render(b *strings.Builder, args *[]any) {
	if len(o.preds) == 0 {
		b.WriteString("1=0")
		return
	}
	renderJoined(b, args, o.preds, " OR ")
}

func (n not) Render(b *strings.Builder, args *[]any) {
	b.WriteString("NOT (")
	n.pred.Render(b, args)
	b.WriteString(")")
}

func (c cmp) Render(b *strings.Builder, args *[]any) {
	fmt.Fprintf(b, "%s %s ?", c.col, c.op)
	*args = append(*args, c.val)
}

func (i in) Render(b *strings.Builder, args *[]any) {
	if len(i.vals) == 0 {
		b.WriteString("1=0")
		return
	}
	b.WriteString(i.col)
	b.WriteString(" IN (")
	b.WriteString(strings.TrimSuffix(strings.Repeat("?,", len(i.vals)), ","))
	b.WriteString(")")
	*args = append(*args, i.vals...)
}

func (n isNull) Render(b *strings.Builder, _ *[]any) {
	b.WriteString(n.col)
	if n.negated {
		b.WriteString(" IS NOT NULL")
	} else {
		b.WriteString(" IS NULL")
	}
}

func (r raw) Render(b *strings.Builder, args *[]any) {
	b.WriteString("(")
	b.WriteString(r.sql)
	b.WriteString(")")
	*args = append(*args, r.args...)
}

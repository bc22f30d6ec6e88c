package predicate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vellumdb/vellum/internal/predicate"
)

func TestWhere_Nil(t *testing.T) {
	sql, args := predicate.Where(nil)
	assert.Equal(t, "", sql)
	assert.Empty(t, args)
}

func TestWhere_Composition(t *testing.T) {
	p := predicate.And(
		predicate.Eq("corpus_id", int64(7)),
		predicate.Or(
			predicate.IsNull("folder_id"),
			predicate.In("folder_id", int64(1), int64(2)),
		),
		nil, // optional filter not supplied
	)
	sql, args := predicate.Where(p)
	assert.Equal(t, " WHERE (corpus_id = ? AND (folder_id IS NULL OR folder_id IN (?,?)))", sql)
	assert.Equal(t, []any{int64(7), int64(1), int64(2)}, args)
}

func TestWhere_EmptyIn(t *testing.T) {
	sql, args := predicate.Where(predicate.In("id"))
	assert.Equal(t, " WHERE 1=0", sql)
	assert.Empty(t, args)
}

func TestWhere_NotAndRaw(t *testing.T) {
	p := predicate.And(
		predicate.Not(predicate.Eq("is_deleted", 1)),
		predicate.Raw("created_at <= ?", int64(100)),
	)
	sql, args := predicate.Where(p)
	assert.Equal(t, " WHERE (NOT (is_deleted = ?) AND (created_at <= ?))", sql)
	assert.Equal(t, []any{1, int64(100)}, args)
}

func TestWhere_EmptyGroups(t *testing.T) {
	sql, _ := predicate.Where(predicate.And())
	assert.Equal(t, " WHERE 1=1", sql)
	sql, _ = predicate.Where(predicate.Or())
	assert.Equal(t, " WHERE 1=0", sql)
}

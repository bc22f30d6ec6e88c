package docpath_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vellumdb/vellum/internal/docpath"
)

func TestNormalise(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"a.pdf", "a.pdf"},
		{"/a.pdf", "a.pdf"},
		{"reports/q1/a.pdf", "reports/q1/a.pdf"},
		{"reports//q1/a.pdf", "reports/q1/a.pdf"},
		{"reports/q1/", "reports/q1"},
		{"./a.pdf", "a.pdf"},
	}
	for _, c := range cases {
		got, err := docpath.Normalise(c.in)
		assert.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestNormalise_Invalid(t *testing.T) {
	for _, in := range []string{"", "/", ".", "..", "../a.pdf", "a/../../b"} {
		_, err := docpath.Normalise(in)
		assert.ErrorIs(t, err, docpath.ErrInvalid, in)
	}
}

func TestDirBase(t *testing.T) {
	assert.Equal(t, "reports/q1", docpath.Dir("reports/q1/a.pdf"))
	assert.Equal(t, "", docpath.Dir("a.pdf"))
	assert.Equal(t, "a.pdf", docpath.Base("reports/q1/a.pdf"))
	assert.Equal(t, "a.pdf", docpath.Base("a.pdf"))
}

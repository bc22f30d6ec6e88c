package diff

import (
	"strings"
	"testing"
)

func TestCompute(t *testing.T) {
	r := Compute("alpha\nbeta\ngamma\n", "alpha\nBETA\ngamma\n", "v1", "v2")

	if r.Old != "v1" || r.New != "v2" {
		t.Errorf("labels = (%q, %q), want (v1, v2)", r.Old, r.New)
	}
	if !strings.Contains(r.Diff, "- beta") {
		t.Errorf("diff missing deletion:\n%s", r.Diff)
	}
	if !strings.Contains(r.Diff, "+ BETA") {
		t.Errorf("diff missing insertion:\n%s", r.Diff)
	}

	out := r.Format(false)
	if !strings.HasPrefix(out, "--- v1\n+++ v2\n") {
		t.Errorf("Format missing header:\n%s", out)
	}
}

func TestComputeCollapsesLongEqualRuns(t *testing.T) {
	var lines []string
	for i := 0; i < 20; i++ {
		lines = append(lines, "same")
	}
	oldC := "first\n" + strings.Join(lines, "\n") + "\nlast\n"
	newC := "FIRST\n" + strings.Join(lines, "\n") + "\nlast\n"

	r := Compute(oldC, newC, "a", "b")
	if !strings.Contains(r.Diff, "  ...\n") {
		t.Errorf("long equal run not collapsed:\n%s", r.Diff)
	}
}

func TestParseVersionRange(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		v1      int
		v2      int
		wantErr bool
		errMsg  string
	}{
		{name: "valid range", input: "1:3", v1: 1, v2: 3},
		{name: "same version", input: "2:2", v1: 2, v2: 2},
		{name: "large versions", input: "100:999", v1: 100, v2: 999},
		{name: "empty colon", input: ":", wantErr: true, errMsg: "both versions required"},
		{name: "missing start", input: ":5", wantErr: true, errMsg: "both versions required"},
		{name: "missing end", input: "3:", wantErr: true, errMsg: "both versions required"},
		{name: "no colon", input: "5", wantErr: true, errMsg: "expected v1:v2"},
		{name: "too many colons", input: "1:2:3", wantErr: true, errMsg: "expected v1:v2"},
		{name: "non-numeric start", input: "abc:5", wantErr: true, errMsg: "invalid start version"},
		{name: "non-numeric end", input: "3:xyz", wantErr: true, errMsg: "invalid end version"},
		{name: "zero start", input: "0:3", wantErr: true, errMsg: "start version must be >= 1"},
		{name: "negative end", input: "1:-5", wantErr: true, errMsg: "end version must be >= 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v1, v2, err := ParseVersionRange(tt.input)

			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseVersionRange(%q) = (%d, %d, nil), want error containing %q",
						tt.input, v1, v2, tt.errMsg)
					return
				}
				if tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("ParseVersionRange(%q) error = %q, want containing %q",
						tt.input, err.Error(), tt.errMsg)
				}
				return
			}

			if err != nil {
				t.Errorf("ParseVersionRange(%q) = error %v, want (%d, %d)",
					tt.input, err, tt.v1, tt.v2)
				return
			}

			if v1 != tt.v1 || v2 != tt.v2 {
				t.Errorf("ParseVersionRange(%q) = (%d, %d), want (%d, %d)",
					tt.input, v1, v2, tt.v1, tt.v2)
			}
		})
	}
}

package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{
			name: "identical titles score 1",
			a:    "Quarterly Financial Report",
			b:    "Quarterly Financial Report",
			want: 1.0,
		},
		{
			name: "case and spacing do not matter",
			a:    "  QUARTERLY financial REPORT ",
			b:    "quarterly Financial report",
			want: 1.0,
		},
		{
			name: "superset title shares two of three tokens",
			a:    "Q3 Financial Report",
			b:    "Q3 Financial Report 2024",
			want: 2.0 / 3.0,
		},
		{
			name: "disjoint titles score 0",
			a:    "Onboarding Checklist",
			b:    "Incident Response Runbook",
			want: 0,
		},
		{
			name: "both empty score 0",
			a:    "",
			b:    "",
			want: 0,
		},
		{
			name: "short tokens only score 0",
			a:    "a of to",
			b:    "a of to",
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Jaccard(tt.a, tt.b), 1e-9)
		})
	}
}

func TestJaccard_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"Q3 Financial Report", "Q3 Financial Report 2024"},
		{"security policy handbook", "handbook"},
		{"", "anything here"},
		{"one shared token", "token"},
	}
	for _, p := range pairs {
		assert.Equal(t, Jaccard(p[0], p[1]), Jaccard(p[1], p[0]), "pair %q / %q", p[0], p[1])
	}
}

func TestJaccard_SelfSimilarity(t *testing.T) {
	// Any title with at least one scoring token matches itself exactly.
	for _, s := range []string{"Incident Runbook", "annual review notes", "migration"} {
		assert.Equal(t, 1.0, Jaccard(s, s))
	}
}

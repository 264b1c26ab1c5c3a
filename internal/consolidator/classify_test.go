package consolidator

import (
	"testing"
	"time"

	"github.com/nconklindev/tally/internal/types"
)

func TestClassifyColumn(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name     string
		values   []any
		expected types.ColumnKind
	}{
		{"Numbers", []any{1.0, 2.5, 3.0}, types.KindNumeric},
		{"Numbers with blanks", []any{nil, 1.0, nil}, types.KindNumeric},
		{"Text", []any{"a", "b"}, types.KindCategorical},
		{"Text with blanks", []any{nil, "a"}, types.KindCategorical},
		{"Mixed number and text", []any{1.0, "a"}, types.KindCategorical},
		{"Mixed number and bool", []any{1.0, true}, types.KindCategorical},
		{"All blank", []any{nil, nil}, types.KindOther},
		{"Empty", nil, types.KindOther},
		{"Booleans", []any{true, false}, types.KindOther},
		{"Dates", []any{now, now}, types.KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyColumn(tt.values); got != tt.expected {
				t.Errorf("ClassifyColumn(%v) = %s; want %s", tt.values, got, tt.expected)
			}
		})
	}
}

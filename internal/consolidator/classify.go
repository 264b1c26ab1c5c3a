package consolidator

import (
	"time"

	"github.com/nconklindev/tally/internal/types"
)

// ClassifyColumn derives the chart kind of a column from its values.
// Numeric columns hold only numbers; any text, or a mix of value kinds, makes
// a column categorical. Empty columns and columns of only booleans or only
// dates get no chart.
func ClassifyColumn(values []any) types.ColumnKind {
	var numbers, texts, bools, times, others int
	for _, v := range values {
		switch v.(type) {
		case nil:
		case float64:
			numbers++
		case string:
			texts++
		case bool:
			bools++
		case time.Time:
			times++
		default:
			others++
		}
	}

	kinds := 0
	for _, n := range []int{numbers, texts, bools, times, others} {
		if n > 0 {
			kinds++
		}
	}

	switch {
	case kinds == 0:
		return types.KindOther
	case kinds > 1 || texts > 0:
		return types.KindCategorical
	case numbers > 0:
		return types.KindNumeric
	default:
		return types.KindOther
	}
}

// classify tags every column of t.
func classify(t *types.Table) {
	for i := range t.Columns {
		t.Columns[i].Kind = ClassifyColumn(t.Column(i))
	}
}

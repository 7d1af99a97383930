package diff

import (
	"sqlpipe/internal/core"
)

// Indexes diffs desired against observed indexes.
//
// Indexes are compared by shape only: field list (order and length
// sensitive), scalar-vs-list form, and the primary/unique/fullText flags.
// Key names are ignored. Observed indexes with no equal desired index are
// dropped first, in observed order, then desired indexes with no equal
// observed index are added, in desired order. An index whose shape changed
// therefore shows up as a DROP followed by an ADD.
func Indexes(desired, observed []*core.Index, opts Options) []Op {
	var ops []Op
	for _, idx := range observed {
		if !containsIndex(desired, idx, opts) {
			ops = append(ops, Op{Kind: DropIndex, Name: idx.Name(), Index: idx})
		}
	}
	for _, idx := range desired {
		if !containsIndex(observed, idx, opts) {
			ops = append(ops, Op{Kind: AddIndex, Name: idx.Name(), Index: idx})
		}
	}
	return ops
}

func containsIndex(list []*core.Index, idx *core.Index, opts Options) bool {
	for _, other := range list {
		if equalIndex(idx, other, opts) {
			return true
		}
	}
	return false
}

func equalIndex(a, b *core.Index, opts Options) bool {
	return equalIndexFields(a, b, opts) &&
		a.Primary == b.Primary &&
		a.Unique == b.Unique &&
		a.FullText == b.FullText
}

func equalIndexFields(a, b *core.Index, opts Options) bool {
	if a.Scalar != b.Scalar {
		if !opts.FoldSingleFieldIndexes || len(a.Fields) != 1 || len(b.Fields) != 1 {
			return false
		}
	}
	if len(a.Fields) != len(b.Fields) {
		return false
	}
	for i := range a.Fields {
		if a.Fields[i] != b.Fields[i] {
			return false
		}
	}
	return true
}

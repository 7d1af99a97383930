// Package diff computes the schema changes needed to move a live table
// (observed) to the caller's definition (desired). The functions here are
// pure: they never touch a database and never render SQL.
package diff

import (
	"fmt"

	"sqlpipe/internal/core"
)

// Options tunes the differ. The zero value reproduces the legacy behavior.
type Options struct {
	// SkipUnchangedColumns suppresses CHANGE operations for columns whose
	// observed definition already matches the desired one.
	SkipUnchangedColumns bool

	// FoldSingleFieldIndexes treats a single-field index declared as a
	// scalar and one declared as a one-element list as the same shape.
	FoldSingleFieldIndexes bool
}

// DefaultOptions returns the default differ options.
func DefaultOptions() Options {
	return Options{}
}

// OpKind identifies a schema operation.
type OpKind int

const (
	AddColumn OpKind = iota
	ChangeColumn
	DropColumn
	AddIndex
	DropIndex
)

func (k OpKind) String() string {
	switch k {
	case AddColumn:
		return "ADD COLUMN"
	case ChangeColumn:
		return "CHANGE COLUMN"
	case DropColumn:
		return "DROP COLUMN"
	case AddIndex:
		return "ADD INDEX"
	case DropIndex:
		return "DROP INDEX"
	default:
		return "UNKNOWN"
	}
}

func (k OpKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *OpKind) UnmarshalText(b []byte) error {
	for c := AddColumn; c <= DropIndex; c++ {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown operation kind %q", b)
}

// Op is one schema operation.
//
// For column operations Name is the observed column name (CHANGE, DROP) or
// the desired one (ADD) and Column carries the desired definition (nil for
// DROP). For index operations Index is the observed index (DROP) or the
// desired one (ADD).
type Op struct {
	Kind   OpKind       `json:"kind"`
	Name   string       `json:"name,omitempty"`
	Column *core.Column `json:"column,omitempty"`
	Index  *core.Index  `json:"index,omitempty"`
}

// Plan is the ordered list of operations for one table.
type Plan struct {
	Table string `json:"table"`
	Ops   []Op   `json:"ops"`
}

// Empty reports whether the plan has nothing to apply.
func (p *Plan) Empty() bool {
	return p == nil || len(p.Ops) == 0
}

// Count returns the number of operations of the given kind.
func (p *Plan) Count(kind OpKind) int {
	if p == nil {
		return 0
	}
	n := 0
	for _, op := range p.Ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// Tables diffs two snapshots of the same table. Column operations come
// first, then index operations.
func Tables(desired, observed *core.Table, opts Options) *Plan {
	plan := &Plan{}
	if desired != nil {
		plan.Table = desired.Name
	} else if observed != nil {
		plan.Table = observed.Name
	}

	var dc, oc []*core.Column
	var di, oi []*core.Index
	if desired != nil {
		dc, di = desired.Columns, desired.Indexes
	}
	if observed != nil {
		oc, oi = observed.Columns, observed.Indexes
	}

	plan.Ops = append(plan.Ops, Columns(dc, oc, opts)...)
	plan.Ops = append(plan.Ops, Indexes(di, oi, opts)...)
	return plan
}

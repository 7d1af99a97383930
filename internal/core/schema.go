// Package core contains the shared model of the toolkit: table schemas as
// authored by callers or reconstructed from a live database, query results,
// and the error taxonomy used by every other package.
package core

import (
	"encoding/json"
	"strings"
)

// Table represents a table schema snapshot. The desired snapshot is authored
// by the caller, the observed one is built by introspection.
type Table struct {
	Name    string    `json:"name"`
	Columns []*Column `json:"columns"`
	Indexes []*Index  `json:"indexes,omitempty"`
}

// Column represents a column definition.
//
// HasDefault distinguishes "no default" (false) from an explicit default.
// When HasDefault is true a nil Default means DEFAULT NULL.
type Column struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	Size          string `json:"size"`
	Charset       string `json:"charset,omitempty"`
	Nullable      bool   `json:"null"`
	HasDefault    bool   `json:"-"`
	Default       any    `json:"default"`
	AutoIncrement bool   `json:"autoIncrement"`

	// TypeOnly marks a column declared as a bare type string. It renders as
	// the name and the type with no other attributes.
	TypeOnly bool `json:"-"`

	// Key roles, set only on observed columns.
	Primary bool `json:"primary"`
	Unique  bool `json:"unique"`
	Index   bool `json:"index"`
}

// Index represents an index definition. Fields order is significant.
//
// Scalar records that the index was declared (or observed) with a single
// field name instead of a list. Index equality takes that form into account.
type Index struct {
	Key      string   `json:"key,omitempty"`
	Fields   []string `json:"fields"`
	Scalar   bool     `json:"-"`
	Primary  bool     `json:"primary"`
	Unique   bool     `json:"unique"`
	FullText bool     `json:"fullText"`
}

// Name returns the index key, synthesized from the field names when unset.
func (i *Index) Name() string {
	if strings.TrimSpace(i.Key) != "" {
		return i.Key
	}
	return strings.Join(i.Fields, "_")
}

// FindColumn returns the column with the given name, compared
// case-insensitively, or nil.
func (t *Table) FindColumn(name string) *Column {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

// ColumnNames returns the column names in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	return names
}

// MarshalJSON renders the field list as a scalar for single-field indexes
// declared in scalar form.
func (i *Index) MarshalJSON() ([]byte, error) {
	type plain Index
	var fields any = i.Fields
	if i.Scalar && len(i.Fields) == 1 {
		fields = i.Fields[0]
	}
	return json.Marshal(struct {
		*plain
		Fields any `json:"fields"`
	}{plain: (*plain)(i), Fields: fields})
}

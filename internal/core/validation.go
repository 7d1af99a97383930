package core

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"
)

// ValidationError represents an error during schema validation.
type ValidationError struct {
	Entity  string
	Name    string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error in %s %q field %q: %s", e.Entity, e.Name, e.Field, e.Message)
	}
	return fmt.Sprintf("validation error in %s %q: %s", e.Entity, e.Name, e.Message)
}

// Unwrap lets callers match validation failures with ErrInvalidArgument.
func (e *ValidationError) Unwrap() error { return ErrInvalidArgument }

// Validate checks if the Table definition is valid and returns an error if not.
func (t *Table) Validate() error {
	if t == nil {
		return &ValidationError{Entity: "table", Message: "table is nil"}
	}
	if strings.TrimSpace(t.Name) == "" {
		return &ValidationError{Entity: "table", Name: "(empty)", Message: "table name is empty"}
	}
	if len(t.Columns) == 0 {
		return &ValidationError{Entity: "table", Name: t.Name, Message: "table has no columns"}
	}

	seenCols := make(map[string]bool)
	for i, c := range t.Columns {
		if c == nil {
			return &ValidationError{Entity: "table", Name: t.Name, Message: fmt.Sprintf("column at index %d is nil", i)}
		}
		if err := c.Validate(); err != nil {
			return err
		}
		nameLower := strings.ToLower(c.Name)
		if seenCols[nameLower] {
			return &ValidationError{Entity: "table", Name: t.Name, Message: fmt.Sprintf("duplicate column name %q", c.Name)}
		}
		seenCols[nameLower] = true
	}

	primaries := 0
	for i, idx := range t.Indexes {
		if idx == nil {
			return &ValidationError{Entity: "table", Name: t.Name, Message: fmt.Sprintf("index at index %d is nil", i)}
		}
		if err := idx.Validate(); err != nil {
			return err
		}
		if idx.Primary {
			primaries++
		}
	}
	if primaries > 1 {
		return &ValidationError{Entity: "table", Name: t.Name, Message: "more than one primary key"}
	}
	return nil
}

// Validate checks if the Column definition is valid and returns an error if not.
func (c *Column) Validate() error {
	if c == nil {
		return &ValidationError{Entity: "column", Message: "column is nil"}
	}
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Entity: "column", Name: "(empty)", Message: "column name is empty"}
	}
	if strings.TrimSpace(c.Type) == "" {
		return &ValidationError{Entity: "column", Name: c.Name, Field: "Type", Message: "column type is empty"}
	}
	if c.HasDefault && c.Default == nil && !c.Nullable && !c.TypeOnly {
		return &ValidationError{Entity: "column", Name: c.Name, Field: "Default", Message: "DEFAULT NULL on a NOT NULL column"}
	}
	if c.HasDefault && !scalarDefault(c.Default) {
		return &ValidationError{Entity: "column", Name: c.Name, Field: "Default", Message: fmt.Sprintf("unsupported default value of type %T", c.Default)}
	}
	return nil
}

// scalarDefault reports whether v has a single-literal SQL form.
func scalarDefault(v any) bool {
	if v == nil {
		return true
	}
	if _, ok := v.(time.Time); ok {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	return false
}

// Validate checks if the Index definition is valid and returns an error if not.
func (i *Index) Validate() error {
	if i == nil {
		return &ValidationError{Entity: "index", Message: "index is nil"}
	}
	if len(i.Fields) == 0 {
		return &ValidationError{Entity: "index", Name: i.Key, Field: "Fields", Message: "index has no fields"}
	}
	for j, f := range i.Fields {
		if strings.TrimSpace(f) == "" {
			return &ValidationError{Entity: "index", Name: i.Name(), Message: fmt.Sprintf("index field at position %d has empty name", j)}
		}
	}
	kinds := 0
	for _, set := range []bool{i.Primary, i.Unique, i.FullText} {
		if set {
			kinds++
		}
	}
	if kinds > 1 {
		return &ValidationError{Entity: "index", Name: i.Name(), Message: "at most one of primary, unique and fullText may be set"}
	}
	return nil
}

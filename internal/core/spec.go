package core

import (
	"fmt"
	"regexp"
	"strings"
)

var typeSizeRe = regexp.MustCompile(`^([^()]+)\(([^()]*)\)(.*)$`)

// SplitType splits a combined column type such as "varchar(255)" or
// "int(10) unsigned" into the upper-cased type ("VARCHAR", "INT UNSIGNED")
// and the size ("255", "10"). Trailing modifiers stay on the type; the DDL
// renderer moves them after the size. Types without a size return an empty
// size.
func SplitType(raw string) (typ, size string) {
	raw = strings.TrimSpace(raw)
	m := typeSizeRe.FindStringSubmatch(raw)
	if m == nil {
		return strings.ToUpper(raw), ""
	}
	typ = strings.TrimSpace(m[1]) + m[3]
	return strings.ToUpper(strings.TrimSpace(typ)), strings.TrimSpace(m[2])
}

// ParseColumnSpec builds a Column from the dynamic column description used
// by schema files and the CLI: either a bare type string ("int") or a map
// with the keys type, size, charset, null, default and autoIncrement.
//
// A "default" key that is present with a nil value means DEFAULT NULL.
func ParseColumnSpec(name string, spec any) (*Column, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("column name is empty: %w", ErrInvalidArgument)
	}
	switch v := spec.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, fmt.Errorf("column %q: empty type: %w", name, ErrInvalidArgument)
		}
		return &Column{Name: name, Type: strings.TrimSpace(v), TypeOnly: true}, nil
	case map[string]any:
		return columnFromMap(name, v)
	case *Column:
		c := *v
		c.Name = name
		return &c, nil
	default:
		return nil, fmt.Errorf("column %q: unsupported description %T: %w", name, spec, ErrInvalidArgument)
	}
}

func columnFromMap(name string, m map[string]any) (*Column, error) {
	c := &Column{Name: name}
	for k, v := range m {
		var err error
		switch k {
		case "type":
			c.Type, err = stringValue(v)
		case "size":
			c.Size = fmt.Sprint(v)
		case "charset":
			c.Charset, err = stringValue(v)
		case "null", "nullable":
			c.Nullable, err = boolValue(v)
		case "default":
			c.HasDefault = true
			c.Default = v
		case "autoIncrement", "auto_increment":
			c.AutoIncrement, err = boolValue(v)
		default:
			err = fmt.Errorf("unknown key %q", k)
		}
		if err != nil {
			return nil, fmt.Errorf("column %q: %v: %w", name, err, ErrInvalidArgument)
		}
	}
	if strings.TrimSpace(c.Type) == "" {
		return nil, fmt.Errorf("column %q: missing type: %w", name, ErrInvalidArgument)
	}
	return c, nil
}

// ParseIndexSpec builds an Index from a bare field name, a list of field
// names, or a map with the keys fields, key, primary, unique and fullText.
func ParseIndexSpec(spec any) (*Index, error) {
	switch v := spec.(type) {
	case string:
		return &Index{Fields: []string{v}, Scalar: true}, nil
	case []string:
		return &Index{Fields: append([]string(nil), v...)}, nil
	case []any:
		fields, err := stringList(v)
		if err != nil {
			return nil, fmt.Errorf("index fields: %v: %w", err, ErrInvalidArgument)
		}
		return &Index{Fields: fields}, nil
	case map[string]any:
		return indexFromMap(v)
	default:
		return nil, fmt.Errorf("unsupported index description %T: %w", spec, ErrInvalidArgument)
	}
}

func indexFromMap(m map[string]any) (*Index, error) {
	idx := &Index{}
	for k, v := range m {
		var err error
		switch k {
		case "fields":
			var inner *Index
			inner, err = ParseIndexSpec(v)
			if err == nil {
				idx.Fields, idx.Scalar = inner.Fields, inner.Scalar
			}
		case "key":
			idx.Key, err = stringValue(v)
		case "primary":
			idx.Primary, err = boolValue(v)
		case "unique":
			idx.Unique, err = boolValue(v)
		case "fullText", "fulltext":
			idx.FullText, err = boolValue(v)
		default:
			err = fmt.Errorf("unknown key %q", k)
		}
		if err != nil {
			return nil, fmt.Errorf("index: %v: %w", err, ErrInvalidArgument)
		}
	}
	if len(idx.Fields) == 0 {
		return nil, fmt.Errorf("index without fields: %w", ErrInvalidArgument)
	}
	return idx, nil
}

func stringValue(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %T", v)
	}
	return s, nil
}

func boolValue(v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("expected bool, got %T", v)
	}
	return b, nil
}

func stringList(vs []any) ([]string, error) {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		s, err := stringValue(v)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

package diff

import (
	"fmt"
	"strings"

	"sqlpipe/internal/core"
)

// Columns diffs desired against observed columns.
//
// Every desired column that exists in observed yields a CHANGE, every other
// desired column an ADD, both in desired declaration order. Every observed
// column missing from desired then yields a DROP in observed order. Names
// are matched case-insensitively.
func Columns(desired, observed []*core.Column, opts Options) []Op {
	existing := make(map[string]*core.Column, len(observed))
	for _, c := range observed {
		existing[strings.ToLower(c.Name)] = c
	}
	wanted := make(map[string]bool, len(desired))

	var ops []Op
	for _, c := range desired {
		key := strings.ToLower(c.Name)
		wanted[key] = true
		old, ok := existing[key]
		if !ok {
			ops = append(ops, Op{Kind: AddColumn, Name: c.Name, Column: c})
			continue
		}
		if opts.SkipUnchangedColumns && equalColumn(c, old) {
			continue
		}
		ops = append(ops, Op{Kind: ChangeColumn, Name: old.Name, Column: c})
	}

	for _, c := range observed {
		if !wanted[strings.ToLower(c.Name)] {
			ops = append(ops, Op{Kind: DropColumn, Name: c.Name})
		}
	}
	return ops
}

type columnAttrMatch struct {
	Type          bool
	Size          bool
	Charset       bool
	Nullable      bool
	AutoIncrement bool
	Default       bool
}

// compareColumnAttrs compares a desired column with an observed one.
// Attributes the desired column leaves unspecified always match.
func compareColumnAttrs(want, have *core.Column) columnAttrMatch {
	wantType, wantSize := core.SplitType(want.Type)
	if want.Size != "" {
		wantSize = want.Size
	}
	haveType, haveSize := core.SplitType(have.Type)
	if have.Size != "" {
		haveSize = have.Size
	}

	m := columnAttrMatch{
		Type:          strings.EqualFold(wantType, haveType),
		Size:          wantSize == "" || normalizeSize(wantSize) == normalizeSize(haveSize),
		Charset:       want.Charset == "" || have.Charset == "" || strings.EqualFold(want.Charset, have.Charset),
		Nullable:      want.Nullable == have.Nullable,
		AutoIncrement: want.AutoIncrement == have.AutoIncrement,
		Default:       equalDefault(want, have),
	}
	if want.TypeOnly {
		m.Nullable, m.AutoIncrement, m.Default = true, true, true
	}
	return m
}

func (m columnAttrMatch) allMatch() bool {
	return m.Type && m.Size && m.Charset && m.Nullable && m.AutoIncrement && m.Default
}

func equalColumn(want, have *core.Column) bool {
	return compareColumnAttrs(want, have).allMatch()
}

func equalDefault(want, have *core.Column) bool {
	if !want.HasDefault || want.Default == nil {
		return !have.HasDefault || have.Default == nil
	}
	if !have.HasDefault || have.Default == nil {
		return false
	}
	return strings.EqualFold(defaultText(want.Default), defaultText(have.Default))
}

func defaultText(v any) string {
	switch b := v.(type) {
	case bool:
		if b {
			return "1"
		}
		return "0"
	case []byte:
		return string(b)
	default:
		return fmt.Sprint(v)
	}
}

func normalizeSize(s string) string {
	return strings.ReplaceAll(s, " ", "")
}

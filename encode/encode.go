// Package encode renders a document tree back to text: canonical TOML
// for the formatter and JSON for the --parse output.
package encode

import (
	"sort"
	"strings"

	"github.com/confkit/toml-csl/doctree"
)

func indentOf(level int) string {
	return strings.Repeat("  ", level)
}

// Toml renders the tree as canonical TOML. Keys are emitted in
// lexicographic order: scalar assignments first, then arrays, then
// subtables. Mutable explicitly defined tables (those opened by a
// header) become headers; other tables are written inline.
func Toml(root *doctree.Table) string {
	var sb strings.Builder
	encodeTable(&sb, root, "", 0)
	return sb.String()
}

func sortedIds(t *doctree.Table) []string {
	ids := t.Ids()
	sort.Strings(ids)
	return ids
}

func encodeTable(sb *strings.Builder, table *doctree.Table, scope string, indent int) {
	ids := sortedIds(table)
	for _, id := range ids {
		key := table.Get(id)
		if key == nil || key.Val == nil {
			continue
		}
		if val, ok := key.Val.(*doctree.Value); ok {
			sb.WriteString(indentOf(indent))
			sb.WriteString(id)
			sb.WriteString(" = ")
			sb.WriteString(val.Text)
			sb.WriteString("\n")
		}
	}
	for _, id := range ids {
		key := table.Get(id)
		if key == nil || key.Val == nil {
			continue
		}
		if val, ok := key.Val.(*doctree.Array); ok {
			encodeArrayKey(sb, id, val, scope, indent)
		}
	}
	for _, id := range ids {
		key := table.Get(id)
		if key == nil || key.Val == nil {
			continue
		}
		sub, ok := key.Val.(*doctree.Table)
		if !ok {
			continue
		}
		if sub.Explicit && sub.Mutable {
			newScope := id
			if scope != "" {
				newScope = scope + "." + id
			}
			if sb.Len() != 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(indentOf(indent))
			sb.WriteString("[")
			sb.WriteString(newScope)
			sb.WriteString("]\n")
			encodeTable(sb, sub, newScope, indent)
		} else {
			sb.WriteString(indentOf(indent))
			sb.WriteString(id)
			sb.WriteString(" = ")
			encodeInlineTable(sb, sub)
			sb.WriteString("\n")
		}
	}
}

// encodeArrayKey renders an array either as [[scope]] headers, when
// every element is a mutable explicitly defined table, or as an inline
// array.
func encodeArrayKey(sb *strings.Builder, id string, array *doctree.Array, scope string, indent int) {
	arrayOfTables := len(array.Elems) > 0
	for _, elem := range array.Elems {
		table, ok := elem.(*doctree.Table)
		if !ok || !table.Explicit || !table.Mutable {
			arrayOfTables = false
			break
		}
	}
	if arrayOfTables {
		arrayScope := id
		if scope != "" {
			arrayScope = scope + "." + id
		}
		for _, elem := range array.Elems {
			if sb.Len() != 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(indentOf(indent))
			sb.WriteString("[[")
			sb.WriteString(arrayScope)
			sb.WriteString("]]\n")
			encodeTable(sb, elem.(*doctree.Table), arrayScope, indent+1)
		}
		return
	}
	sb.WriteString(indentOf(indent))
	sb.WriteString(id)
	sb.WriteString(" = ")
	encodeInlineArray(sb, array)
	sb.WriteString("\n")
}

func encodeInlineArray(sb *strings.Builder, array *doctree.Array) {
	sb.WriteString("[ ")
	first := true
	for _, elem := range array.Elems {
		if elem == nil {
			continue
		}
		if !first {
			sb.WriteString(", ")
		}
		first = false
		switch val := elem.(type) {
		case *doctree.Value:
			sb.WriteString(val.Text)
		case *doctree.Array:
			encodeInlineArray(sb, val)
		case *doctree.Table:
			encodeInlineTable(sb, val)
		}
	}
	sb.WriteString(" ]")
}

func encodeInlineTable(sb *strings.Builder, table *doctree.Table) {
	sb.WriteString("{ ")
	first := true
	for _, id := range sortedIds(table) {
		key := table.Get(id)
		if key == nil || key.Val == nil {
			continue
		}
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(id)
		sb.WriteString(" = ")
		switch val := key.Val.(type) {
		case *doctree.Value:
			sb.WriteString(val.Text)
		case *doctree.Array:
			encodeInlineArray(sb, val)
		case *doctree.Table:
			encodeInlineTable(sb, val)
		}
	}
	sb.WriteString(" }")
}

// Package doctree holds the in-memory representation of a parsed TOML
// document: a tree of tables, arrays, scalar values and the keys that
// own them.
package doctree

import (
	"github.com/confkit/toml-csl/token"
)

// Node is one of *Value, *Array, *Table or *Key.
type Node interface {
	isNode()
}

// Value is a scalar leaf. Immutable once constructed.
type Value struct {
	Tag       token.TypeTag
	Text      string
	DefRegion token.Region
}

func (*Value) isNode() {}

func NewValue(tag token.TypeTag, text string, def token.Region) *Value {
	return &Value{Tag: tag, Text: text, DefRegion: def}
}

// Array owns its elements. Inline array literals are sealed when their
// closing bracket is consumed; arrays of tables opened by [[header]]
// stay mutable, and the parser does not seal them when the document
// ends.
type Array struct {
	Elems     []Node
	Mutable   bool
	DefRegion token.Region
}

func (*Array) isNode() {}

func (a *Array) Seal() {
	a.Mutable = false
}

// Key owns its child node and keeps a non-owning reference to the table
// it lives in.
type Key struct {
	Id     string
	Val    Node
	Parent *Table
}

func (*Key) isNode() {}

// Table owns its keys. Insertion order is preserved so that JSON output
// reflects document order.
type Table struct {
	keys  map[string]*Key
	order []string

	Mutable   bool
	DefRegion token.Region
	Explicit  bool
}

func (*Table) isNode() {}

func NewTable(mutable bool, def token.Region, explicit bool) *Table {
	return &Table{
		keys:      map[string]*Key{},
		Mutable:   mutable,
		DefRegion: def,
		Explicit:  explicit,
	}
}

func (t *Table) Seal() {
	t.Mutable = false
}

// Add inserts the key and takes ownership. The key's parent reference
// is set to t.
func (t *Table) Add(k *Key) {
	if _, ok := t.keys[k.Id]; !ok {
		t.order = append(t.order, k.Id)
	}
	t.keys[k.Id] = k
	k.Parent = t
}

func (t *Table) Get(id string) *Key {
	return t.keys[id]
}

func (t *Table) Len() int {
	return len(t.order)
}

// Ids returns the key names in insertion order.
func (t *Table) Ids() []string {
	return append([]string(nil), t.order...)
}

// Keys returns the keys in insertion order.
func (t *Table) Keys() []*Key {
	res := make([]*Key, 0, len(t.order))
	for _, id := range t.order {
		res = append(res, t.keys[id])
	}
	return res
}

// DefRegionOf returns the definition region of a node, or the zero
// region for keys with no resolved value.
func DefRegionOf(n Node) token.Region {
	switch x := n.(type) {
	case *Value:
		return x.DefRegion
	case *Array:
		return x.DefRegion
	case *Table:
		return x.DefRegion
	case *Key:
		if x.Val != nil {
			return DefRegionOf(x.Val)
		}
	}
	return token.Region{}
}

// Resolve walks a dotted path from t. Intermediate segments traverse
// tables only; the final segment may be any node.
func Resolve(t *Table, path []string) Node {
	var cur Node = t
	for _, seg := range path {
		tbl, ok := cur.(*Table)
		if !ok {
			return nil
		}
		k := tbl.Get(seg)
		if k == nil {
			return nil
		}
		cur = k.Val
	}
	return cur
}

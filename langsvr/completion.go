package langsvr

import (
	"fmt"
	"strings"

	"github.com/segmentio/encoding/json"

	"github.com/confkit/toml-csl/csl"
	"github.com/confkit/toml-csl/doctree"
	"github.com/confkit/toml-csl/token"
)

// findPairs is the fuzzy matcher: a candidate key survives when the
// characters it shares with the input form a subsequence of the input,
// preserving input order.
func findPairs[V any](keys []string, values []V, input string) ([]string, []V) {
	var outKeys []string
	var outVals []V
	for i, key := range keys {
		inputChars := map[byte]bool{}
		for j := 0; j < len(input); j++ {
			inputChars[input[j]] = true
		}
		var common []byte
		for j := 0; j < len(key); j++ {
			if inputChars[key[j]] {
				common = append(common, key[j])
				delete(inputChars, key[j])
			}
		}
		if len(common) == 0 {
			continue
		}
		ptr := 0
		isSubseq := true
		for _, c := range common {
			idx := strings.IndexByte(input[ptr:], c)
			if idx < 0 {
				isSubseq = false
				break
			}
			ptr += idx + 1
		}
		if isSubseq {
			outKeys = append(outKeys, key)
			outVals = append(outVals, values[i])
		}
	}
	return outKeys, outVals
}

type completionItem struct {
	Label      string `json:"label"`
	Kind       int    `json:"kind"`
	Detail     string `json:"detail"`
	InsertText string `json:"insertText,omitempty"`
}

const completionKindField = 6

func docCompletionItem(id string, node doctree.Node) (completionItem, bool) {
	switch val := node.(type) {
	case *doctree.Table:
		return completionItem{
			Label: id,
			Kind:  completionKindField,
			Detail: fmt.Sprintf("Table defined at ln %d, col %d",
				val.DefRegion.Start.Line+1, val.DefRegion.Start.Col+1),
			InsertText: id,
		}, true
	case *doctree.Array:
		return completionItem{
			Label: id,
			Kind:  completionKindField,
			Detail: fmt.Sprintf("Array defined at ln %d, col %d",
				val.DefRegion.Start.Line+1, val.DefRegion.Start.Col+1),
			InsertText: id,
		}, true
	}
	return completionItem{}, false
}

func schemaCompletionItem(def csl.KeyDefinition) completionItem {
	detail := "Mandatory key in schema"
	if def.Optional {
		detail = "Optional key in schema"
	}
	return completionItem{
		Label:      def.Name,
		Kind:       completionKindField,
		Detail:     detail,
		InsertText: def.Name,
	}
}

func (s *Server) activeSchema() *csl.ConfigSchema {
	if len(s.cslSchemas) == 0 {
		return nil
	}
	if s.currentCslSchema == "" && len(s.cslSchemas) == 1 {
		return s.cslSchemas[0]
	}
	for _, schema := range s.cslSchemas {
		if schema.Name == s.currentCslSchema {
			return schema
		}
	}
	return nil
}

// findTableType locates the schema table type describing targetTable by
// walking the document and schema trees in parallel.
func findTableType(docTable, targetTable *doctree.Table, schemaType *csl.TableType) *csl.TableType {
	if docTable == targetTable {
		return schemaType
	}
	for _, key := range docTable.Keys() {
		childTable, ok := key.Val.(*doctree.Table)
		if !ok {
			continue
		}
		var childType csl.Type
		for i := range schemaType.ExplicitKeys {
			if schemaType.ExplicitKeys[i].Name == key.Id {
				childType = schemaType.ExplicitKeys[i].Type
				break
			}
		}
		if childType == nil && schemaType.WildcardKey != nil {
			childType = schemaType.WildcardKey.Type
		}
		if childType == nil {
			continue
		}
		switch ct := childType.(type) {
		case *csl.TableType:
			if result := findTableType(childTable, targetTable, ct); result != nil {
				return result
			}
		case *csl.UnionType:
			for _, member := range ct.Members {
				if mt, ok := member.(*csl.TableType); ok {
					if result := findTableType(childTable, targetTable, mt); result != nil {
						return result
					}
				}
			}
		}
	}
	return nil
}

func (s *Server) schemaTableType(target, root *doctree.Table) *csl.TableType {
	schema := s.activeSchema()
	if schema == nil || target == nil || root == nil {
		return nil
	}
	return findTableType(root, target, schema.Root)
}

func (s *Server) schemaKeyItems(target, root *doctree.Table, filter string) []completionItem {
	tableType := s.schemaTableType(target, root)
	if tableType == nil {
		return nil
	}
	var items []completionItem
	if filter == "" {
		for _, def := range tableType.ExplicitKeys {
			items = append(items, schemaCompletionItem(def))
		}
		return items
	}
	names := make([]string, len(tableType.ExplicitKeys))
	defs := make([]csl.KeyDefinition, len(tableType.ExplicitKeys))
	for i, def := range tableType.ExplicitKeys {
		names[i] = def.Name
		defs[i] = def
	}
	_, matched := findPairs(names, defs, filter)
	for _, def := range matched {
		items = append(items, schemaCompletionItem(def))
	}
	return items
}

// tableOf unwraps a key value to a table, taking the last element of
// arrays of tables.
func tableOf(node doctree.Node) *doctree.Table {
	switch val := node.(type) {
	case *doctree.Table:
		return val
	case *doctree.Array:
		if len(val.Elems) > 0 {
			if table, ok := val.Elems[len(val.Elems)-1].(*doctree.Table); ok {
				return table
			}
		}
	}
	return nil
}

// handleCompletion offers sibling keys by fuzzy match when the cursor
// sits on an identifier, member keys when it sits on a dot, and the
// enclosing header table's keys when it sits in open space. Schema keys
// are merged in whenever a schema is bound.
func (s *Server) handleCompletion(msg *message) (any, error) {
	var params positionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil, err
	}
	a, err := s.analyze(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}
	pos := params.pos()
	toks := a.tokens.Tokens()
	completions := []completionItem{}
	lastHeaderTable := a.parse.Root
	matchedToken := false
	for i := range toks {
		t := &toks[i]
		// track the table opened by the most recent [header]
		if t.Category == token.Identifier && i+1 < len(toks) && toks[i+1].Text == "]" {
			if key, ok := a.parse.KeyMap[i]; ok {
				if table := tableOf(key.Val); table != nil {
					lastHeaderTable = table
				}
			} else {
				lastHeaderTable = nil
			}
		}
		if !t.Region.ContainsPos(pos) {
			continue
		}
		matchedToken = true
		_, mapped := a.parse.KeyMap[i]
		if !mapped && t.Text != "." {
			continue
		}
		if t.Text == "." {
			if i == 0 {
				continue
			}
			key, ok := a.parse.KeyMap[i-1]
			if !ok {
				continue
			}
			memberTable := tableOf(key.Val)
			if memberTable == nil {
				continue
			}
			for _, member := range memberTable.Keys() {
				if item, ok := docCompletionItem(member.Id, member.Val); ok {
					completions = append(completions, item)
				}
			}
			completions = append(completions, s.schemaKeyItems(memberTable, a.parse.Root, "")...)
		} else {
			key := a.parse.KeyMap[i]
			parent := key.Parent
			if parent == nil {
				continue
			}
			siblingIds := parent.Ids()
			siblingKeys := parent.Keys()
			matchedIds, matchedKeys := findPairs(siblingIds, siblingKeys, key.Id)
			for j, id := range matchedIds {
				if matchedKeys[j] == key {
					continue
				}
				if item, ok := docCompletionItem(id, matchedKeys[j].Val); ok {
					completions = append(completions, item)
				}
			}
			completions = append(completions, s.schemaKeyItems(parent, a.parse.Root, key.Id)...)
		}
	}
	if !matchedToken && lastHeaderTable != nil {
		for _, key := range lastHeaderTable.Keys() {
			if item, ok := docCompletionItem(key.Id, key.Val); ok {
				completions = append(completions, item)
			}
		}
		completions = append(completions, s.schemaKeyItems(lastHeaderTable, a.parse.Root, "")...)
	}
	if len(completions) == 0 {
		return map[string]any{}, nil
	}
	return map[string]any{
		"isIncomplete": false,
		"items":        completions,
	}, nil
}

package langsvr

import (
	"github.com/segmentio/encoding/json"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/confkit/toml-csl/doctree"
	"github.com/confkit/toml-csl/token"
)

// referencesAt groups the regions of every token resolving to the same
// Key and returns the Key under the cursor, if any.
func referencesAt(a *analysis, pos token.Position) (map[*doctree.Key][]token.Region, *doctree.Key) {
	refs := map[*doctree.Key][]token.Region{}
	var target *doctree.Key
	for i, t := range a.tokens.Tokens() {
		key, ok := a.parse.KeyMap[i]
		if !ok {
			continue
		}
		refs[key] = append(refs[key], t.Region)
		if t.Region.ContainsPos(pos) {
			target = key
		}
	}
	return refs, target
}

type referenceParams struct {
	positionParams
	Context struct {
		IncludeDeclaration bool `json:"includeDeclaration"`
	} `json:"context"`
}

func (s *Server) handleReferences(msg *message) (any, error) {
	var params referenceParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil, err
	}
	a, err := s.analyze(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}
	refs, target := referencesAt(a, params.pos())
	references := []protocol.Location{}
	if target != nil {
		defRegion := doctree.DefRegionOf(target.Val)
		for _, ref := range refs[target] {
			if !params.Context.IncludeDeclaration && ref == defRegion {
				continue
			}
			references = append(references, protocol.Location{
				URI:   uri.URI(params.TextDocument.URI),
				Range: regionRange(ref),
			})
		}
	}
	return references, nil
}

type renameParams struct {
	positionParams
	NewName string `json:"newName"`
}

// handleRename rewrites every token mapped to the target Key to the
// new name in a single workspace edit.
func (s *Server) handleRename(msg *message) (any, error) {
	var params renameParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil, err
	}
	a, err := s.analyze(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}
	refs, target := referencesAt(a, params.pos())
	if target == nil {
		return map[string]any{}, nil
	}
	edits := make([]protocol.TextEdit, 0, len(refs[target]))
	for _, ref := range refs[target] {
		edits = append(edits, protocol.TextEdit{
			Range:   regionRange(ref),
			NewText: params.NewName,
		})
	}
	return workspaceEdit{
		Changes: map[string][]protocol.TextEdit{
			params.TextDocument.URI: edits,
		},
	}, nil
}

type workspaceEdit struct {
	Changes map[string][]protocol.TextEdit `json:"changes"`
}

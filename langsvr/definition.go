package langsvr

import (
	"github.com/segmentio/encoding/json"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/confkit/toml-csl/doctree"
)

// handleDefinition resolves the token under the cursor through the
// cross-reference map and returns the region where its table or array
// value is defined.
func (s *Server) handleDefinition(msg *message) (any, error) {
	var params positionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil, err
	}
	a, err := s.analyze(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}
	pos := params.pos()
	var definition any = map[string]any{}
	for i, t := range a.tokens.Tokens() {
		if !t.Region.ContainsPos(pos) {
			continue
		}
		key, ok := a.parse.KeyMap[i]
		if !ok {
			continue
		}
		switch val := key.Val.(type) {
		case *doctree.Table:
			definition = protocol.Location{
				URI:   uri.URI(params.TextDocument.URI),
				Range: regionRange(val.DefRegion),
			}
		case *doctree.Array:
			definition = protocol.Location{
				URI:   uri.URI(params.TextDocument.URI),
				Range: regionRange(val.DefRegion),
			}
		}
	}
	return definition, nil
}

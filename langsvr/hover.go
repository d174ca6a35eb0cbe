package langsvr

import (
	"fmt"

	"github.com/segmentio/encoding/json"
	"go.lsp.dev/protocol"

	"github.com/confkit/toml-csl/doctree"
)

func mutability(mutable bool) string {
	if mutable {
		return "mutable"
	}
	return "immutable"
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

type hoverResult struct {
	Contents protocol.MarkupContent `json:"contents"`
	Range    protocol.Range         `json:"range"`
}

// handleHover renders a Markdown card for the table or array key under
// the cursor: mutability, explicitness, entry count and definition
// position.
func (s *Server) handleHover(msg *message) (any, error) {
	var params positionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil, err
	}
	a, err := s.analyze(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}
	pos := params.pos()
	var hover any = map[string]any{}
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
			markdown := fmt.Sprintf("## **Table** %s\n", key.Id)
			markdown += fmt.Sprintf("- **Mutability**: %s\n", mutability(val.Mutable))
			markdown += fmt.Sprintf("- **Explicitly Defined**: %s\n", yesNo(val.Explicit))
			markdown += fmt.Sprintf("- **Entries**: %d\n", val.Len())
			markdown += fmt.Sprintf("- **Defined At**: ln %d, col %d",
				val.DefRegion.Start.Line+1, val.DefRegion.Start.Col+1)
			hover = hoverResult{
				Contents: protocol.MarkupContent{Kind: protocol.Markdown, Value: markdown},
				Range:    regionRange(t.Region),
			}
		case *doctree.Array:
			markdown := fmt.Sprintf("## **Array** %s\n", key.Id)
			markdown += fmt.Sprintf("- **Mutability**: %s\n", mutability(val.Mutable))
			markdown += fmt.Sprintf("- **Entries**: %d\n", len(val.Elems))
			markdown += fmt.Sprintf("- **Defined At**: ln %d, col %d",
				val.DefRegion.Start.Line+1, val.DefRegion.Start.Col+1)
			hover = hoverResult{
				Contents: protocol.MarkupContent{Kind: protocol.Markdown, Value: markdown},
				Range:    regionRange(t.Region),
			}
		}
	}
	return hover, nil
}

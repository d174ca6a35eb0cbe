package langsvr

import (
	"github.com/segmentio/encoding/json"

	"github.com/confkit/toml-csl/token"
)

// semanticTokenLegend fixes the type indices advertised in the
// initialize response.
var semanticTokenLegend = []token.Category{
	token.Datetime,
	token.Number,
	token.Boolean,
	token.Identifier,
	token.Punctuator,
	token.Operator,
	token.Comment,
	token.String,
	token.Unknown,
}

func tokenTypeIndex(cat token.Category) uint32 {
	for i, c := range semanticTokenLegend {
		if c == cat {
			return uint32(i)
		}
	}
	return uint32(len(semanticTokenLegend) - 1)
}

type semanticTokensResult struct {
	Data []uint32 `json:"data"`
}

// handleSemanticTokens encodes every token as a delta-encoded 5-tuple
// (deltaLine, deltaChar, length, typeIndex, modifiers).
func (s *Server) handleSemanticTokens(msg *message) (any, error) {
	var params positionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil, err
	}
	a, err := s.analyze(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}
	data := []uint32{}
	prevLine, prevChar := 0, 0
	for _, t := range a.tokens.Tokens() {
		start := t.Region.Start
		deltaLine := start.Line - prevLine
		deltaChar := start.Col
		if deltaLine == 0 {
			deltaChar = start.Col - prevChar
		}
		data = append(data,
			uint32(deltaLine), uint32(deltaChar),
			uint32(len(t.Text)), tokenTypeIndex(t.Category), 0)
		prevLine = start.Line
		prevChar = start.Col
	}
	return semanticTokensResult{Data: data}, nil
}

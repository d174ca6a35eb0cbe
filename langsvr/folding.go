package langsvr

import (
	"github.com/segmentio/encoding/json"

	"github.com/confkit/toml-csl/token"
)

type foldingRange struct {
	StartLine      uint32 `json:"startLine"`
	StartCharacter uint32 `json:"startCharacter"`
	EndLine        uint32 `json:"endLine"`
	EndCharacter   uint32 `json:"endCharacter"`
	Kind           string `json:"kind"`
}

func foldOf(start, end token.Position, kind string) foldingRange {
	return foldingRange{
		StartLine:      uint32(start.Line),
		StartCharacter: uint32(start.Col),
		EndLine:        uint32(end.Line),
		EndCharacter:   uint32(end.Col),
		Kind:           kind,
	}
}

// handleFoldingRange produces folds for inline tables, inline arrays,
// header-defined sections and contiguous comment blocks.
func (s *Server) handleFoldingRange(msg *message) (any, error) {
	var params positionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil, err
	}
	a, err := s.analyze(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}
	toks := a.tokens.Tokens()
	ranges := []foldingRange{}

	isTableHeader := func(i int) bool {
		if toks[i].Text != "[" || i+1 >= len(toks) {
			return false
		}
		_, mapped := a.parse.KeyMap[i+1]
		return toks[i+1].Category == token.Identifier && mapped
	}
	isArrayHeader := func(i int) bool {
		if toks[i].Text != "[" || i+2 >= len(toks) || toks[i+1].Text != "[" {
			return false
		}
		_, mapped := a.parse.KeyMap[i+2]
		return toks[i+2].Category == token.Identifier && mapped
	}
	isHeader := func(i int) bool {
		return isArrayHeader(i) || isTableHeader(i)
	}

	// inline tables
	for i := 0; i < len(toks)-1; i++ {
		if toks[i].Text != "{" {
			continue
		}
		start := toks[i].Region.Start
		j := i + 1
		for j < len(toks) && toks[j].Text != "}" {
			j++
		}
		if j >= len(toks) {
			break
		}
		end := toks[j].Region.End
		i = j
		if start.Line == end.Line {
			continue
		}
		ranges = append(ranges, foldOf(start, end, "range"))
	}

	// header sections and inline arrays
	for i := 0; i < len(toks)-1; i++ {
		if toks[i].Text != "[" {
			continue
		}
		start := toks[i].Region.Start
		j := i + 1
		if isHeader(i) {
			for ; j < len(toks); j++ {
				if j+1 >= len(toks) || isHeader(j+1) {
					break
				}
			}
		} else {
			for ; j < len(toks); j++ {
				if toks[j].Text == "]" {
					break
				}
			}
		}
		if j >= len(toks) {
			break
		}
		end := toks[j].Region.End
		i = j
		if start.Line == end.Line {
			continue
		}
		ranges = append(ranges, foldOf(start, end, "range"))
	}

	// contiguous comment blocks
	for i := 0; i < len(toks)-1; i++ {
		if toks[i].Category != token.Comment {
			continue
		}
		start := toks[i].Region.Start
		j := i
		for ; j < len(toks); j++ {
			if j+1 >= len(toks) || toks[j+1].Category != token.Comment {
				break
			}
		}
		if j >= len(toks) {
			break
		}
		end := toks[j].Region.End
		i = j
		if start.Line == end.Line {
			continue
		}
		ranges = append(ranges, foldOf(start, end, "comment"))
	}

	return ranges, nil
}

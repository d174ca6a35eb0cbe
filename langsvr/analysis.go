package langsvr

import (
	"errors"
	"strings"

	"go.lsp.dev/protocol"

	"github.com/confkit/toml-csl/token"
	"github.com/confkit/toml-csl/toml"
)

// analysis is the per-request pipeline product: token stream, document
// tree and cross references. It is scoped to one request and released
// when the handler returns.
type analysis struct {
	content     string
	tokens      *token.List
	parse       toml.ParseResult
	lexErrors   []token.Diag
	lexWarnings []token.Diag
}

func (s *Server) analyze(uri string) (*analysis, error) {
	content, ok := s.documents[uri]
	if !ok {
		return nil, errors.New("Document not found")
	}
	tokens, lexErrors, lexWarnings := toml.Lex(strings.NewReader(content), s.multilineTokenSupport)
	return &analysis{
		content:     content,
		tokens:      tokens,
		parse:       toml.Parse(tokens),
		lexErrors:   lexErrors,
		lexWarnings: lexWarnings,
	}, nil
}

func regionRange(r token.Region) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: uint32(r.Start.Line), Character: uint32(r.Start.Col)},
		End:   protocol.Position{Line: uint32(r.End.Line), Character: uint32(r.End.Col)},
	}
}

type positionParams struct {
	TextDocument struct {
		URI string `json:"uri"`
	} `json:"textDocument"`
	Position struct {
		Line      int `json:"line"`
		Character int `json:"character"`
	} `json:"position"`
}

func (p *positionParams) pos() token.Position {
	return token.Position{Line: p.Position.Line, Col: p.Position.Character}
}

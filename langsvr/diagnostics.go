package langsvr

import (
	"github.com/segmentio/encoding/json"
	"go.lsp.dev/protocol"

	"github.com/confkit/toml-csl/token"
	"github.com/confkit/toml-csl/validator"
)

func diagnosticsFrom(errors, warnings []token.Diag) []protocol.Diagnostic {
	diagnostics := []protocol.Diagnostic{}
	for _, e := range errors {
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range:    regionRange(e.Region),
			Severity: protocol.DiagnosticSeverityError,
			Message:  e.Message,
		})
	}
	for _, w := range warnings {
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range:    regionRange(w.Region),
			Severity: protocol.DiagnosticSeverityWarning,
			Message:  w.Message,
		})
	}
	return diagnostics
}

// documentDiagnostics runs the full pipeline over one document,
// including the CSL validator when schemas are bound.
func (s *Server) documentDiagnostics(uri string) ([]protocol.Diagnostic, error) {
	a, err := s.analyze(uri)
	if err != nil {
		return nil, err
	}
	errors := append(a.lexErrors, a.parse.Errors...)
	warnings := append(a.lexWarnings, a.parse.Warnings...)
	if len(s.cslSchemas) > 0 {
		cslErrors, cslWarnings := validator.Validate(s.currentCslSchema, s.cslSchemas, a.parse.Root)
		errors = append(errors, cslErrors...)
		warnings = append(warnings, cslWarnings...)
	}
	return diagnosticsFrom(errors, warnings), nil
}

type documentDiagnosticReport struct {
	Kind  string                `json:"kind"`
	Items []protocol.Diagnostic `json:"items"`
}

func (s *Server) handlePullDiagnostic(msg *message) (any, error) {
	var params positionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil, err
	}
	diagnostics, err := s.documentDiagnostics(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}
	return documentDiagnosticReport{Kind: "full", Items: diagnostics}, nil
}

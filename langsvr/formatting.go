package langsvr

import (
	"strings"

	"github.com/segmentio/encoding/json"
	"github.com/sergi/go-diff/diffmatchpatch"
	"go.lsp.dev/protocol"

	"github.com/confkit/toml-csl/encode"
)

// handleFormatting re-emits the tree as canonical TOML and diffs it
// line-wise against the original, returning minimal line-range edits.
func (s *Server) handleFormatting(msg *message) (any, error) {
	var params positionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil, err
	}
	a, err := s.analyze(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}
	formatted := encode.Toml(a.parse.Root)
	edits := computeEdits(a.content, formatted)
	if edits == nil {
		edits = []protocol.TextEdit{}
	}
	return edits, nil
}

// computeEdits produces one TextEdit per changed line hunk using a
// line-granular diff.
func computeEdits(original, modified string) []protocol.TextEdit {
	if original == modified {
		return nil
	}
	dmp := diffmatchpatch.New()
	origRunes, modRunes, lines := dmp.DiffLinesToRunes(original, modified)
	diffs := dmp.DiffCharsToLines(dmp.DiffMainRunes(origRunes, modRunes, false), lines)

	var edits []protocol.TextEdit
	origLine := 0
	pendingStart := -1
	pendingDel := 0
	var pendingText strings.Builder
	flush := func() {
		if pendingStart < 0 {
			return
		}
		edits = append(edits, protocol.TextEdit{
			Range: protocol.Range{
				Start: protocol.Position{Line: uint32(pendingStart)},
				End:   protocol.Position{Line: uint32(pendingStart + pendingDel)},
			},
			NewText: pendingText.String(),
		})
		pendingStart = -1
		pendingDel = 0
		pendingText.Reset()
	}
	for _, d := range diffs {
		n := strings.Count(d.Text, "\n")
		if n == 0 && d.Text != "" {
			// final line without trailing newline counts as one line
			n = 1
		}
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			origLine += n
		case diffmatchpatch.DiffDelete:
			if pendingStart < 0 {
				pendingStart = origLine
			}
			pendingDel += n
			origLine += n
		case diffmatchpatch.DiffInsert:
			if pendingStart < 0 {
				pendingStart = origLine
			}
			pendingText.WriteString(d.Text)
		}
	}
	flush()
	return edits
}

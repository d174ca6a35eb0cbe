// Package langsvr implements the JSON-RPC language server: framed
// transport, lifecycle state machine and the editor feature handlers
// built on the TOML and CSL front ends.
package langsvr

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/segmentio/encoding/json"
	"go.lsp.dev/jsonrpc2"
)

type lineEndMode int

const (
	lineEndUnknown lineEndMode = iota
	lineEndLF
	lineEndCRLF
)

// transport frames JSON bodies with Content-Length headers. The header
// line-ending flavor is auto-detected from the first blank separator
// observed and held per connection.
type transport struct {
	in      *bufio.Reader
	out     io.Writer
	lineEnd lineEndMode
}

func newTransport(in io.Reader, out io.Writer) *transport {
	return &transport{in: bufio.NewReader(in), out: out}
}

// readContent reads one framed message body.
func (t *transport) readContent() ([]byte, error) {
	contentLength := 0
	var line strings.Builder
	for {
		b, err := t.in.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("unexpected EOF reached when reading LSP header: %w", err)
		}
		line.WriteByte(b)
		if b != '\n' {
			continue
		}
		s := line.String()
		line.Reset()
		if s == "\n" || s == "\r\n" {
			if t.lineEnd == lineEndUnknown {
				if len(s) == 1 {
					t.lineEnd = lineEndLF
				} else {
					t.lineEnd = lineEndCRLF
				}
			}
			if contentLength > 0 {
				break
			}
			continue
		}
		if strings.HasPrefix(s, "Content-Length:") {
			v := strings.TrimSpace(strings.TrimPrefix(s, "Content-Length:"))
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("invalid Content-Length %q", v)
			}
			contentLength = n
		}
	}
	content := make([]byte, contentLength)
	if _, err := io.ReadFull(t.in, content); err != nil {
		return nil, fmt.Errorf("unexpected EOF reached when reading LSP content: %w", err)
	}
	return content, nil
}

func (t *transport) writeContent(content []byte) error {
	sep := "\r\n\r\n"
	if t.lineEnd == lineEndLF {
		sep = "\n\n"
	}
	header := "Content-Length: " + strconv.Itoa(len(content)) + sep
	if _, err := io.WriteString(t.out, header); err != nil {
		return err
	}
	_, err := t.out.Write(content)
	return err
}

// message is the JSON-RPC 2.0 envelope. The id is kept raw so request
// ids round-trip unchanged.
type message struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method,omitempty"`
	Params  json.RawMessage  `json:"params,omitempty"`
	Result  json.RawMessage  `json:"result,omitempty"`
	Error   *jsonrpc2.Error  `json:"error,omitempty"`
}

func (m *message) isResponse() bool {
	return m.JSONRPC == "2.0" && (m.Result != nil || m.Error != nil)
}

func rawID(id uint64) *json.RawMessage {
	raw := json.RawMessage(strconv.FormatUint(id, 10))
	return &raw
}

func marshalRaw(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("null")
	}
	return json.RawMessage(b)
}

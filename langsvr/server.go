package langsvr

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/segmentio/encoding/json"
	"go.lsp.dev/jsonrpc2"

	"github.com/confkit/toml-csl/csl"
	"github.com/confkit/toml-csl/debug"
)

// Server is a single-threaded cooperative language server: each
// message is handled to completion before the next is read. All
// per-connection state, including the detected frame line ending,
// lives here.
type Server struct {
	transport *transport

	serverInitialized bool
	clientInitialized bool
	serverShutdown    bool
	serverExited      bool

	multilineTokenSupport bool
	traceValue            string

	documents map[string]string

	cslSchemas       []*csl.ConfigSchema
	currentCslSchema string

	nextID            uint64
	responseCallbacks map[uint64]func(*message)
}

// New builds a server over the given byte channel.
func New(in io.Reader, out io.Writer) *Server {
	return &Server{
		transport:         newTransport(in, out),
		documents:         map[string]string{},
		responseCallbacks: map[uint64]func(*message){},
	}
}

// Run processes messages until exit. The exit code is 0 when shutdown
// preceded exit and 1 otherwise.
func (s *Server) Run() int {
	for {
		content, err := s.transport.readContent()
		if err != nil {
			debug.LangSvrf("langsvr: read: %v\n", err)
			if s.serverExited {
				break
			}
			return 1
		}
		var msg message
		if err := json.Unmarshal(content, &msg); err != nil {
			s.sendMessage(&message{
				JSONRPC: "2.0",
				Error:   &jsonrpc2.Error{Code: jsonrpc2.ParseError, Message: err.Error()},
			})
			continue
		}
		if msg.isResponse() {
			s.dispatchResponse(&msg)
		} else {
			if resp := s.handleRequest(&msg); resp != nil {
				s.sendMessage(resp)
			}
		}
		if s.exitCode() != -1 {
			break
		}
	}
	return s.exitCode()
}

func (s *Server) exitCode() int {
	if !s.serverExited {
		return -1
	}
	if s.serverShutdown {
		return 0
	}
	return 1
}

func (s *Server) sendMessage(msg *message) {
	body, err := json.Marshal(msg)
	if err != nil {
		debug.LangSvrf("langsvr: marshal: %v\n", err)
		return
	}
	if err := s.transport.writeContent(body); err != nil {
		debug.LangSvrf("langsvr: write: %v\n", err)
	}
}

// sendRequest sends a server-to-client request and registers a callback
// keyed by the request id.
func (s *Server) sendRequest(method string, params any, callback func(*message)) {
	id := s.nextID
	s.nextID++
	s.sendMessage(&message{
		JSONRPC: "2.0",
		ID:      rawID(id),
		Method:  method,
		Params:  marshalRaw(params),
	})
	if callback == nil {
		callback = func(*message) {}
	}
	s.responseCallbacks[id] = callback
}

func (s *Server) sendNotification(method string, params any) {
	s.sendMessage(&message{
		JSONRPC: "2.0",
		Method:  method,
		Params:  marshalRaw(params),
	})
}

func (s *Server) dispatchResponse(msg *message) {
	if msg.ID == nil {
		return
	}
	var id uint64
	if err := json.Unmarshal(*msg.ID, &id); err != nil {
		return
	}
	if callback, ok := s.responseCallbacks[id]; ok {
		delete(s.responseCallbacks, id)
		callback(msg)
	}
}

func response(id *json.RawMessage, result any) *message {
	return &message{JSONRPC: "2.0", ID: id, Result: marshalRaw(result)}
}

func errResponse(id *json.RawMessage, code jsonrpc2.Code, msg string) *message {
	return &message{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &jsonrpc2.Error{Code: code, Message: msg},
	}
}

// handleRequest enforces the lifecycle state machine and dispatches to
// the feature handlers. Any handler error becomes a -32603 response;
// unknown methods get -32601.
func (s *Server) handleRequest(msg *message) *message {
	debug.LangSvrf("langsvr: <- %s\n", msg.Method)
	result, err := s.dispatch(msg)
	if err != nil {
		var unknown *unknownMethodError
		if errors.As(err, &unknown) {
			return errResponse(msg.ID, jsonrpc2.MethodNotFound, "Method not found")
		}
		return errResponse(msg.ID, jsonrpc2.InternalError, err.Error())
	}
	if result == nil && msg.ID == nil {
		return nil
	}
	if result == nil {
		return nil
	}
	return response(msg.ID, result)
}

type unknownMethodError struct {
	method string
}

func (e *unknownMethodError) Error() string {
	return fmt.Sprintf("method not found: %s", e.method)
}

// dispatch returns the result payload for requests, nil for
// notifications.
func (s *Server) dispatch(msg *message) (any, error) {
	if msg.Method == "initialize" {
		return s.handleInitialize(msg)
	}
	if !s.serverInitialized {
		return nil, errors.New("Server not initialized")
	}
	if msg.Method == "initialized" {
		return s.handleInitialized(msg)
	}
	if !s.clientInitialized {
		return nil, errors.New("Client not initialized")
	}
	if s.serverShutdown && msg.Method != "exit" {
		return nil, errors.New("Server already shutdown")
	}
	switch msg.Method {
	case "exit":
		s.serverExited = true
		s.serverInitialized = false
		return nil, nil
	case "shutdown":
		s.serverShutdown = true
		return json.RawMessage("null"), nil
	case "$/setTrace":
		return s.handleSetTrace(msg)
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "textDocument/references":
		return s.handleReferences(msg)
	case "textDocument/rename":
		return s.handleRename(msg)
	case "textDocument/foldingRange":
		return s.handleFoldingRange(msg)
	case "textDocument/semanticTokens/full":
		return s.handleSemanticTokens(msg)
	case "textDocument/formatting":
		return s.handleFormatting(msg)
	case "textDocument/definition":
		return s.handleDefinition(msg)
	case "textDocument/completion":
		return s.handleCompletion(msg)
	case "textDocument/hover":
		return s.handleHover(msg)
	case "textDocument/diagnostic":
		return s.handlePullDiagnostic(msg)
	case "configSchemaLanguage/setSchemas":
		return s.handleCslSetSchemas(msg)
	case "configSchemaLanguage/setSchema":
		return s.handleCslSetSchema(msg)
	default:
		return nil, &unknownMethodError{method: msg.Method}
	}
}

type initializeParams struct {
	Trace        string `json:"trace"`
	Capabilities struct {
		TextDocument struct {
			SemanticTokens struct {
				MultilineTokenSupport bool `json:"multilineTokenSupport"`
			} `json:"semanticTokens"`
		} `json:"textDocument"`
	} `json:"capabilities"`
}

func (s *Server) handleInitialize(msg *message) (any, error) {
	if s.serverInitialized {
		return nil, errors.New("Initialize request may only be sent once")
	}
	s.serverInitialized = true
	var params initializeParams
	if err := json.Unmarshal(msg.Params, &params); err == nil {
		s.traceValue = params.Trace
		s.multilineTokenSupport = params.Capabilities.TextDocument.SemanticTokens.MultilineTokenSupport
	}
	return map[string]any{
		"capabilities": map[string]any{
			"textDocumentSync":     1,
			"referencesProvider":   true,
			"renameProvider":       true,
			"foldingRangeProvider": true,
			"semanticTokensProvider": map[string]any{
				"legend": map[string]any{
					"tokenTypes": []string{
						"datetime", "number", "boolean", "identifier",
						"punctuator", "operator", "comment", "string", "unknown",
					},
					"tokenModifiers": []string{},
				},
				"full": true,
			},
			"documentFormattingProvider": true,
			"definitionProvider":         true,
			"completionProvider": map[string]any{
				"triggerCharacters":   []string{".", "-"},
				"allCommitCharacters": []string{".", "=", " ", "\"", "'", "]", "}"},
			},
			"hoverProvider": true,
			"diagnosticProvider": map[string]any{
				"interFileDependencies": true,
				"workspaceDiagnostics":  false,
			},
		},
	}, nil
}

func (s *Server) handleInitialized(msg *message) (any, error) {
	if s.clientInitialized {
		return nil, errors.New("Initialized request may only be sent once")
	}
	s.clientInitialized = true
	return nil, nil
}

type setTraceParams struct {
	Value string `json:"value"`
}

func (s *Server) handleSetTrace(msg *message) (any, error) {
	var params setTraceParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil, err
	}
	s.traceValue = params.Value
	return nil, nil
}

type textDocumentParams struct {
	TextDocument struct {
		URI     string `json:"uri"`
		Text    string `json:"text"`
		Version int32  `json:"version"`
	} `json:"textDocument"`
}

func (s *Server) handleDidOpen(msg *message) (any, error) {
	var params textDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil, err
	}
	s.documents[params.TextDocument.URI] = params.TextDocument.Text
	return nil, nil
}

type didChangeParams struct {
	TextDocument struct {
		URI string `json:"uri"`
	} `json:"textDocument"`
	ContentChanges []struct {
		Text string `json:"text"`
	} `json:"contentChanges"`
}

func (s *Server) handleDidChange(msg *message) (any, error) {
	var params didChangeParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil, err
	}
	if len(params.ContentChanges) > 0 {
		s.documents[params.TextDocument.URI] = params.ContentChanges[len(params.ContentChanges)-1].Text
	}
	return nil, nil
}

func (s *Server) handleDidClose(msg *message) (any, error) {
	var params textDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil, err
	}
	delete(s.documents, params.TextDocument.URI)
	return nil, nil
}

type setSchemasParams struct {
	Schemas string `json:"schemas"`
	Schema  string `json:"schema"`
}

func (s *Server) handleCslSetSchemas(msg *message) (any, error) {
	var params setSchemasParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil, err
	}
	s.cslSchemas = nil
	if params.Schema != "" {
		s.currentCslSchema = params.Schema
	}
	list, _, _ := csl.Lex(strings.NewReader(params.Schemas), s.multilineTokenSupport)
	schemas, _, _ := csl.Parse(list)
	s.cslSchemas = schemas
	s.sendRequest("workspace/diagnostic/refresh", nil, nil)
	return json.RawMessage("null"), nil
}

type setSchemaParams struct {
	Schema string `json:"schema"`
}

func (s *Server) handleCslSetSchema(msg *message) (any, error) {
	var params setSchemaParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil, err
	}
	s.currentCslSchema = params.Schema
	s.sendRequest("workspace/diagnostic/refresh", nil, nil)
	return json.RawMessage("null"), nil
}

// Package server exposes the actions to editors as LSP code actions over
// JSON-RPC.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/sourcegraph/jsonrpc2"
	"github.com/tliron/commonlog"
	"go.lsp.dev/protocol"

	"github.com/lexcodex/cppsynth/framework/actions"
)

// Workspace is the document source the server runs actions against.
type Workspace interface {
	actions.Workspace
	// Invalidate drops cached state of uri after it changed on disk.
	Invalidate(uri string)
}

// Command names advertised through executeCommandProvider.
const (
	CommandAddDefinition  = "cppsynth.addDefinition"
	CommandAddDeclaration = "cppsynth.addDeclaration"
	CommandAddGetter      = "cppsynth.addGetter"
	CommandAddSetter      = "cppsynth.addSetter"
	CommandAddAccessors   = "cppsynth.addAccessors"
)

type operation struct {
	command string
	title   string
	run     func(s *actions.Session, ctx context.Context, uri string, pos protocol.Position) (*actions.EditSet, error)
}

var operations = []operation{
	{CommandAddDefinition, "Add definition", (*actions.Session).AddDefinition},
	{CommandAddDeclaration, "Add declaration", (*actions.Session).AddDeclaration},
	{CommandAddGetter, "Add getter", (*actions.Session).AddGetter},
	{CommandAddSetter, "Add setter", (*actions.Session).AddSetter},
	{CommandAddAccessors, "Add getter and setter", (*actions.Session).AddAccessors},
}

// LSPServer answers code action requests for C++ documents.
type LSPServer struct {
	ws      Workspace
	session *actions.Session
	log     commonlog.Logger

	mu            sync.RWMutex
	openDocuments map[string]*Document
	conn          *jsonrpc2.Conn
}

// Document tracks a file open in the editor.
type Document struct {
	URI        string
	LanguageID string
	Version    int32
	Text       string
}

// CommandArgs is the argument of every cppsynth command.
type CommandArgs struct {
	URI      string            `json:"uri"`
	Position protocol.Position `json:"position"`
}

// NewLSPServer builds a server instance.
func NewLSPServer(ws Workspace, session *actions.Session) *LSPServer {
	return &LSPServer{
		ws:            ws,
		session:       session,
		log:           commonlog.GetLogger("cppsynth.server"),
		openDocuments: make(map[string]*Document),
	}
}

// Serve runs the server on rwc until the client disconnects or sends exit.
func (s *LSPServer) Serve(ctx context.Context, rwc io.ReadWriteCloser) error {
	conn := jsonrpc2.NewConn(ctx, jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{}), jsonrpc2.HandlerWithError(s.handle))
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	select {
	case <-conn.DisconnectNotify():
	case <-ctx.Done():
		conn.Close()
		return ctx.Err()
	}
	return nil
}

func (s *LSPServer) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	switch req.Method {
	case "initialize":
		return s.Initialize(), nil
	case "initialized", "$/cancelRequest", "$/setTrace":
		return nil, nil
	case "shutdown":
		return nil, nil
	case "exit":
		return nil, conn.Close()
	case "textDocument/didOpen":
		var params protocol.DidOpenTextDocumentParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		s.TextDocumentDidOpen(params)
		return nil, nil
	case "textDocument/didChange":
		var params protocol.DidChangeTextDocumentParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		return nil, s.TextDocumentDidChange(params)
	case "textDocument/didSave":
		var params protocol.DidSaveTextDocumentParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		s.ws.Invalidate(string(params.TextDocument.URI))
		return nil, nil
	case "textDocument/didClose":
		var params protocol.DidCloseTextDocumentParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		s.mu.Lock()
		delete(s.openDocuments, string(params.TextDocument.URI))
		s.mu.Unlock()
		return nil, nil
	case "textDocument/codeAction":
		var params protocol.CodeActionParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		return s.CodeActions(ctx, params)
	case "workspace/executeCommand":
		var params protocol.ExecuteCommandParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		edit, err := s.ExecuteCommand(ctx, params)
		if err != nil {
			return nil, err
		}
		var applied protocol.ApplyWorkspaceEditResponse
		if err := conn.Call(ctx, "workspace/applyEdit", &protocol.ApplyWorkspaceEditParams{Edit: *edit}, &applied); err != nil {
			return nil, err
		}
		if !applied.Applied {
			s.log.Warningf("client rejected %s: %s", params.Command, applied.FailureReason)
		}
		return nil, nil
	}
	if req.Notif {
		return nil, nil
	}
	return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "method not supported: " + req.Method}
}

func decode(req *jsonrpc2.Request, v interface{}) error {
	if req.Params == nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "missing params"}
	}
	if err := json.Unmarshal(*req.Params, v); err != nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	}
	return nil
}

// Initialize returns the server capabilities.
func (s *LSPServer) Initialize() *protocol.InitializeResult {
	commands := make([]string, 0, len(operations))
	for _, op := range operations {
		commands = append(commands, op.command)
	}
	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
				Save:      &protocol.SaveOptions{},
			},
			CodeActionProvider: protocol.CodeActionOptions{
				CodeActionKinds: []protocol.CodeActionKind{protocol.RefactorRewrite},
			},
			ExecuteCommandProvider: &protocol.ExecuteCommandOptions{Commands: commands},
		},
		ServerInfo: &protocol.ServerInfo{Name: "cppsynth"},
	}
}

// TextDocumentDidOpen stores document state.
func (s *LSPServer) TextDocumentDidOpen(params protocol.DidOpenTextDocumentParams) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := params.TextDocument
	s.openDocuments[string(item.URI)] = &Document{
		URI:        string(item.URI),
		LanguageID: string(item.LanguageID),
		Version:    item.Version,
		Text:       item.Text,
	}
}

// TextDocumentDidChange replaces the document text. Only full sync is
// supported.
func (s *LSPServer) TextDocumentDidChange(params protocol.DidChangeTextDocumentParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	uri := string(params.TextDocument.URI)
	doc, ok := s.openDocuments[uri]
	if !ok {
		return fmt.Errorf("document %s not tracked", uri)
	}
	if n := len(params.ContentChanges); n > 0 {
		doc.Text = params.ContentChanges[n-1].Text
	}
	doc.Version = params.TextDocument.Version
	return nil
}

// CodeActions lists the operations applicable at the start of the requested
// range. Documents with unsaved changes get no actions since edits are
// computed against the file on disk.
func (s *LSPServer) CodeActions(ctx context.Context, params protocol.CodeActionParams) ([]protocol.CodeAction, error) {
	uri := string(params.TextDocument.URI)
	if !s.inSync(ctx, uri) {
		s.log.Debugf("skipping code actions for modified %s", uri)
		return nil, nil
	}
	var out []protocol.CodeAction
	for _, op := range operations {
		set, err := op.run(s.session, ctx, uri, params.Range.Start)
		if err != nil {
			if errors.Is(err, actions.ErrNotApplicable) || errors.Is(err, actions.ErrNoSymbol) {
				continue
			}
			s.log.Warningf("%s: %s", op.command, err)
			continue
		}
		edit, err := s.workspaceEdit(ctx, set)
		if err != nil {
			return nil, err
		}
		out = append(out, protocol.CodeAction{
			Title: set.Description,
			Kind:  protocol.RefactorRewrite,
			Edit:  edit,
		})
	}
	return out, nil
}

// ExecuteCommand computes the edit of one command.
func (s *LSPServer) ExecuteCommand(ctx context.Context, params protocol.ExecuteCommandParams) (*protocol.WorkspaceEdit, error) {
	if len(params.Arguments) != 1 {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "expected one argument"}
	}
	raw, err := json.Marshal(params.Arguments[0])
	if err != nil {
		return nil, err
	}
	var args CommandArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	}
	for _, op := range operations {
		if op.command != params.Command {
			continue
		}
		if !s.inSync(ctx, args.URI) {
			return nil, fmt.Errorf("%s has unsaved changes", args.URI)
		}
		set, err := op.run(s.session, ctx, args.URI, args.Position)
		if err != nil {
			return nil, err
		}
		return s.workspaceEdit(ctx, set)
	}
	return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "unknown command " + params.Command}
}

// inSync reports whether the editor buffer of uri matches the file on disk.
// Documents the editor has not opened are taken from disk.
func (s *LSPServer) inSync(ctx context.Context, uri string) bool {
	s.mu.RLock()
	doc, open := s.openDocuments[uri]
	var text string
	if open {
		text = doc.Text
	}
	s.mu.RUnlock()
	if !open {
		return true
	}
	tree, err := s.ws.Symbols(ctx, uri)
	if err != nil {
		return false
	}
	if tree.Document().Text() == text {
		return true
	}
	s.ws.Invalidate(uri)
	tree, err = s.ws.Symbols(ctx, uri)
	return err == nil && tree.Document().Text() == text
}

func (s *LSPServer) workspaceEdit(ctx context.Context, set *actions.EditSet) (*protocol.WorkspaceEdit, error) {
	changes := make(map[protocol.DocumentURI][]protocol.TextEdit)
	for _, uri := range set.URIs() {
		tree, err := s.ws.Symbols(ctx, uri)
		if err != nil {
			return nil, err
		}
		doc := tree.Document()
		for _, e := range set.For(uri) {
			changes[protocol.DocumentURI(uri)] = append(changes[protocol.DocumentURI(uri)], protocol.TextEdit{
				Range:   protocol.Range{Start: doc.PositionAt(e.Offset), End: doc.PositionAt(e.Offset + e.Length)},
				NewText: e.Text,
			})
		}
	}
	return &protocol.WorkspaceEdit{Changes: changes}, nil
}

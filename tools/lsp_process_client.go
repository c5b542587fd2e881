package tools

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/sourcegraph/jsonrpc2"
	"github.com/tliron/commonlog"
	"go.lsp.dev/protocol"

	"github.com/lexcodex/cppsynth/framework/document"
)

// ProcessConfig defines how to spin up a language server process.
type ProcessConfig struct {
	Command    string
	Args       []string
	RootDir    string
	LanguageID string
	// Timeout bounds each request; zero means no bound beyond the caller's
	// context.
	Timeout time.Duration
}

// ClangdConfig returns the process configuration for clangd.
func ClangdConfig(path string, args []string, root string, timeout time.Duration) ProcessConfig {
	if path == "" {
		path = "clangd"
	}
	return ProcessConfig{Command: path, Args: args, RootDir: root, LanguageID: "cpp", Timeout: timeout}
}

type processClient struct {
	cfg     ProcessConfig
	cmd     *exec.Cmd
	conn    *jsonrpc2.Conn
	cancel  context.CancelFunc
	log     commonlog.Logger
	started time.Time

	mu       sync.Mutex
	versions map[protocol.DocumentURI]int32
	texts    map[protocol.DocumentURI]string
}

// NewProcessClient launches the configured language server and performs the
// LSP handshake.
func NewProcessClient(ctx context.Context, cfg ProcessConfig) (Analyzer, error) {
	if cfg.Command == "" {
		return nil, errors.New("command is required for LSP client")
	}
	if cfg.LanguageID == "" {
		return nil, errors.New("language id is required for LSP client")
	}
	root := cfg.RootDir
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	procCtx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(procCtx, cfg.Command, cfg.Args...)
	cmd.Dir = absRoot

	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, err
	}

	client := &processClient{
		cfg:      cfg,
		cmd:      cmd,
		cancel:   cancel,
		log:      commonlog.GetLogger("cppsynth.tools"),
		versions: make(map[protocol.DocumentURI]int32),
		texts:    make(map[protocol.DocumentURI]string),
	}

	rwc := &stdioReadWriteCloser{reader: stdout, writer: stdin}
	stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{})
	client.conn = jsonrpc2.NewConn(procCtx, stream, jsonrpc2.HandlerWithError(client.handle))

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start %s: %w", cfg.Command, err)
	}
	client.started = time.Now()
	go client.drain(stderr)
	client.log.Infof("started %s (pid %d) in %s", cfg.Command, cmd.Process.Pid, absRoot)

	initCtx, done := client.bound(ctx)
	defer done()
	if err := client.initialize(initCtx, absRoot); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("initialize %s: %w", cfg.Command, err)
	}
	return client, nil
}

// NewClangdClient starts clangd over root.
func NewClangdClient(ctx context.Context, path string, args []string, root string, timeout time.Duration) (Analyzer, error) {
	return NewProcessClient(ctx, ClangdConfig(path, args, root, timeout))
}

func (c *processClient) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	switch req.Method {
	case "window/logMessage", "window/showMessage":
		var params protocol.LogMessageParams
		if req.Params != nil && json.Unmarshal(*req.Params, &params) == nil {
			c.log.Debugf("%s: %s", c.cfg.Command, params.Message)
		}
		return nil, nil
	case "window/workDoneProgress/create", "client/registerCapability":
		return nil, nil
	}
	if req.Notif {
		return nil, nil
	}
	return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "method not handled"}
}

func (c *processClient) drain(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		c.log.Debugf("%s stderr: %s", c.cfg.Command, scanner.Text())
	}
}

func (c *processClient) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.cfg.Timeout)
}

func (c *processClient) initialize(ctx context.Context, root string) error {
	params := &protocol.InitializeParams{
		ProcessID: int32(os.Getpid()),
		RootURI:   protocol.DocumentURI(document.URIFromPath(root)),
		ClientInfo: &protocol.ClientInfo{
			Name:    "cppsynth",
			Version: "0.1",
		},
		Capabilities: protocol.ClientCapabilities{
			TextDocument: &protocol.TextDocumentClientCapabilities{
				Definition: &protocol.DefinitionTextDocumentClientCapabilities{},
				DocumentSymbol: &protocol.DocumentSymbolClientCapabilities{
					HierarchicalDocumentSymbolSupport: true,
				},
			},
		},
	}
	var result protocol.InitializeResult
	if err := c.conn.Call(ctx, "initialize", params, &result); err != nil {
		return err
	}
	return c.conn.Notify(ctx, "initialized", &protocol.InitializedParams{})
}

// Close shuts the server down and terminates the process.
func (c *processClient) Close() error {
	if c == nil {
		return nil
	}
	if c.conn != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		if err := c.conn.Call(ctx, "shutdown", nil, nil); err == nil {
			_ = c.conn.Notify(ctx, "exit", nil)
		}
		cancel()
		_ = c.conn.Close()
	}
	if c.cancel != nil {
		c.cancel()
	}
	if c.cmd != nil && c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
		_, _ = c.cmd.Process.Wait()
		c.log.Infof("stopped %s", c.cfg.Command)
	}
	return nil
}

// sync makes the server see text as the content of uri. A document whose
// content changed is closed and reopened.
func (c *processClient) sync(ctx context.Context, uri protocol.DocumentURI, text string) error {
	c.mu.Lock()
	version, open := c.versions[uri]
	if open && c.texts[uri] == text {
		c.mu.Unlock()
		return nil
	}
	version++
	c.versions[uri] = version
	c.texts[uri] = text
	c.mu.Unlock()

	if open {
		err := c.conn.Notify(ctx, "textDocument/didClose", protocol.DidCloseTextDocumentParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		})
		if err != nil {
			return err
		}
	}
	return c.conn.Notify(ctx, "textDocument/didOpen", protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        uri,
			LanguageID: protocol.LanguageIdentifier(c.cfg.LanguageID),
			Version:    version,
			Text:       text,
		},
	})
}

// ensureOpen opens uri from disk unless the server already has it.
func (c *processClient) ensureOpen(ctx context.Context, uri protocol.DocumentURI) error {
	c.mu.Lock()
	_, open := c.versions[uri]
	c.mu.Unlock()
	if open {
		return nil
	}
	data, err := os.ReadFile(document.PathFromURI(string(uri)))
	if err != nil {
		return err
	}
	return c.sync(ctx, uri, string(data))
}

func (c *processClient) DocumentSymbols(ctx context.Context, doc *document.Document) ([]protocol.DocumentSymbol, error) {
	ctx, done := c.bound(ctx)
	defer done()
	uri := protocol.DocumentURI(doc.URI())
	if err := c.sync(ctx, uri, doc.Text()); err != nil {
		return nil, err
	}
	params := protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}
	var raw json.RawMessage
	if err := c.conn.Call(ctx, "textDocument/documentSymbol", params, &raw); err != nil {
		return nil, err
	}
	return decodeDocumentSymbols(raw)
}

func (c *processClient) Definition(ctx context.Context, uri string, pos protocol.Position) ([]protocol.Location, error) {
	ctx, done := c.bound(ctx)
	defer done()
	docURI := protocol.DocumentURI(uri)
	if err := c.ensureOpen(ctx, docURI); err != nil {
		return nil, err
	}
	params := protocol.DefinitionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
			Position:     pos,
		},
	}
	var raw json.RawMessage
	if err := c.conn.Call(ctx, "textDocument/definition", params, &raw); err != nil {
		return nil, err
	}
	return decodeLocations(raw)
}

// decodeDocumentSymbols accepts both the hierarchical and the flat
// documentSymbol result. Flat results are nested by range containment.
func decodeDocumentSymbols(raw json.RawMessage) ([]protocol.DocumentSymbol, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var probe []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("document symbol response not understood: %w", err)
	}
	if len(probe) == 0 {
		return nil, nil
	}
	if _, flat := probe[0]["location"]; !flat {
		var syms []protocol.DocumentSymbol
		if err := json.Unmarshal(raw, &syms); err != nil {
			return nil, err
		}
		return syms, nil
	}
	var infos []protocol.SymbolInformation
	if err := json.Unmarshal(raw, &infos); err != nil {
		return nil, err
	}
	return nestSymbols(infos), nil
}

func nestSymbols(infos []protocol.SymbolInformation) []protocol.DocumentSymbol {
	var roots []protocol.DocumentSymbol
	for _, info := range infos {
		sym := protocol.DocumentSymbol{
			Name:           info.Name,
			Kind:           info.Kind,
			Range:          info.Location.Range,
			SelectionRange: info.Location.Range,
		}
		roots = insertNested(roots, sym)
	}
	return roots
}

func insertNested(list []protocol.DocumentSymbol, sym protocol.DocumentSymbol) []protocol.DocumentSymbol {
	for i := range list {
		if rangeContains(list[i].Range, sym.Range) {
			list[i].Children = insertNested(list[i].Children, sym)
			return list
		}
	}
	return append(list, sym)
}

func rangeContains(outer, inner protocol.Range) bool {
	return !positionBefore(inner.Start, outer.Start) && !positionBefore(outer.End, inner.End) && outer != inner
}

func positionBefore(a, b protocol.Position) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Character < b.Character
}

// decodeLocations accepts a Location, a Location list or a LocationLink list.
func decodeLocations(raw json.RawMessage) ([]protocol.Location, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if raw[0] == '{' {
		var loc protocol.Location
		if err := json.Unmarshal(raw, &loc); err != nil {
			return nil, err
		}
		return []protocol.Location{loc}, nil
	}
	var probe []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("definition response not understood: %w", err)
	}
	if len(probe) > 0 {
		if _, link := probe[0]["targetUri"]; link {
			var links []protocol.LocationLink
			if err := json.Unmarshal(raw, &links); err != nil {
				return nil, err
			}
			out := make([]protocol.Location, 0, len(links))
			for _, l := range links {
				out = append(out, protocol.Location{URI: l.TargetURI, Range: l.TargetSelectionRange})
			}
			return out, nil
		}
	}
	var locs []protocol.Location
	if err := json.Unmarshal(raw, &locs); err != nil {
		return nil, err
	}
	return locs, nil
}

type stdioReadWriteCloser struct {
	reader io.ReadCloser
	writer io.WriteCloser
}

func (s *stdioReadWriteCloser) Read(p []byte) (int, error)  { return s.reader.Read(p) }
func (s *stdioReadWriteCloser) Write(p []byte) (int, error) { return s.writer.Write(p) }
func (s *stdioReadWriteCloser) Close() error {
	_ = s.reader.Close()
	return s.writer.Close()
}

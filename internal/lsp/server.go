// Package lsp exposes conflict lenses, region diagnostics and the resolve
// commands to any editor over the language server protocol.
package lsp

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/chojs23/mergelens/internal/commands"
	"github.com/chojs23/mergelens/internal/config"
	"github.com/chojs23/mergelens/internal/markers"
	"github.com/chojs23/mergelens/internal/tracker"
	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"
)

const lsName = "mergelens"

var log = commonlog.GetLogger("mergelens.lsp")

type Server struct {
	handler protocol.Handler
	version string
	docs    *documentStore

	mu       sync.RWMutex
	cfg      config.Config
	commands *commands.Handler
}

// New returns a server using cfg until the client sends its own options.
func New(cfg config.Config, version string) *Server {
	s := &Server{
		version: version,
		docs:    newDocumentStore(),
	}
	s.configure(cfg)

	s.handler = protocol.Handler{
		Initialize:              s.initialize,
		Initialized:             s.initialized,
		Shutdown:                s.shutdown,
		SetTrace:                s.setTrace,
		TextDocumentDidOpen:     s.textDocumentDidOpen,
		TextDocumentDidChange:   s.textDocumentDidChange,
		TextDocumentDidClose:    s.textDocumentDidClose,
		TextDocumentCodeLens:    s.textDocumentCodeLens,
		WorkspaceExecuteCommand: s.workspaceExecuteCommand,
	}
	return s
}

// RunStdio serves a single client on stdin/stdout until it exits.
func (s *Server) RunStdio() error {
	return s.glspServer().RunStdio()
}

func (s *Server) glspServer() *server.Server {
	return server.NewServer(&s.handler, lsName, false)
}

func (s *Server) configure(cfg config.Config) {
	scanner := markers.NewScanner()
	scanner.Timeout = cfg.ScanTimeout

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.commands != nil {
		s.commands.Tracker().Clear()
	}
	s.cfg = cfg
	s.commands = commands.NewHandler(tracker.New(scanner, cfg.CacheTTL))
}

func (s *Server) state() (config.Config, *commands.Handler) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg, s.commands
}

func (s *Server) initialize(context *glsp.Context, params *protocol.InitializeParams) (any, error) {
	if params.InitializationOptions != nil {
		raw, err := json.Marshal(params.InitializationOptions)
		if err != nil {
			return nil, err
		}
		cfg, _ := s.state()
		cfg, err = config.Overlay(cfg, raw)
		if err != nil {
			log.Warningf("ignoring initializationOptions: %s", err)
		} else {
			s.configure(cfg)
		}
	}

	capabilities := s.handler.CreateServerCapabilities()
	syncKind := protocol.TextDocumentSyncKindIncremental
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &protocol.True,
		Change:    &syncKind,
	}
	capabilities.CodeLensProvider = &protocol.CodeLensOptions{}
	names := make([]string, 0, len(commands.All))
	for _, cmd := range commands.All {
		names = append(names, commandName(cmd))
	}
	names = append(names, ConflictTextCommand)
	capabilities.ExecuteCommandProvider = &protocol.ExecuteCommandOptions{Commands: names}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(context *glsp.Context, params *protocol.InitializedParams) error {
	cfg, _ := s.state()
	log.Infof("initialized: codeLens=%t decorations=%t overview=%t", cfg.CodeLens, cfg.Decorations, cfg.EditorOverview)
	return nil
}

func (s *Server) shutdown(context *glsp.Context) error {
	_, handler := s.state()
	handler.Tracker().Clear()
	s.docs.closeAll()
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (s *Server) setTrace(context *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) textDocumentDidOpen(context *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	doc := s.docs.open(params.TextDocument.URI, params.TextDocument.Text)
	s.refresh(clientFrom(context), doc)
	return nil
}

func (s *Server) textDocumentDidChange(context *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	doc, err := s.docs.change(params.TextDocument.URI, params.ContentChanges)
	if err != nil {
		return err
	}
	s.refresh(clientFrom(context), doc)
	return nil
}

func (s *Server) textDocumentDidClose(context *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	s.docs.close(uri)
	_, handler := s.state()
	handler.Tracker().ForgetIdentity(uri)
	clientFrom(context).publishDiagnostics(uri, nil)
	return nil
}

// refresh drops the stale scan of doc and republishes its regions.
func (s *Server) refresh(c client, doc *markers.TextDocument) {
	cfg, handler := s.state()
	handler.Tracker().Forget(doc)
	if !cfg.ShowsRegions() {
		return
	}
	c.publishDiagnostics(doc.Identity(), regionDiagnostics(cfg, handler.Tracker().GetConflicts(doc)))
}

func (s *Server) textDocumentCodeLens(context *glsp.Context, params *protocol.CodeLensParams) ([]protocol.CodeLens, error) {
	cfg, handler := s.state()
	if !cfg.CodeLens {
		return nil, nil
	}
	doc, ok := s.docs.get(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	return codeLenses(doc.Identity(), handler.Tracker().GetConflicts(doc)), nil
}

var lensTitles = []struct {
	title string
	cmd   commands.Command
}{
	{"Accept Current Change", commands.AcceptCurrent},
	{"Accept Incoming Change", commands.AcceptIncoming},
	{"Accept Both Changes", commands.AcceptBoth},
}

func codeLenses(uri string, conflicts []markers.Conflict) []protocol.CodeLens {
	lenses := make([]protocol.CodeLens, 0, len(conflicts)*len(lensTitles))
	for _, c := range conflicts {
		r := toProtocolRange(c.Current.Header)
		for _, lt := range lensTitles {
			lenses = append(lenses, protocol.CodeLens{
				Range: r,
				Command: &protocol.Command{
					Title:     lt.title,
					Command:   commandName(lt.cmd),
					Arguments: []any{lensArgs(uri, c)},
				},
			})
		}
	}
	return lenses
}

func (s *Server) workspaceExecuteCommand(context *glsp.Context, params *protocol.ExecuteCommandParams) (any, error) {
	if params.Command == ConflictTextCommand {
		return s.conflictText(params.Arguments)
	}
	return nil, s.execute(clientFrom(context), params.Command, params.Arguments)
}

func (s *Server) conflictText(arguments []any) (string, error) {
	uri, r, err := decodeRangeArgs(arguments)
	if err != nil {
		return "", err
	}
	doc, ok := s.docs.get(uri)
	if !ok {
		return "", fmt.Errorf("document not open: %s", uri)
	}
	return doc.TextIn(r), nil
}

// execute runs one command. Warnings go to the user and are not errors.
func (s *Server) execute(c client, name string, arguments []any) error {
	cmd, err := parseCommandName(name)
	if err != nil {
		return err
	}
	args, err := decodeArgs(arguments)
	if err != nil {
		return err
	}
	doc, ok := s.docs.get(args.URI)
	if !ok {
		return fmt.Errorf("document not open: %s", args.URI)
	}

	_, handler := s.state()
	ed := &remoteEditor{client: c, doc: doc, cursor: args.Position}
	inv := commands.FromCursor()
	if args.Conflict != nil {
		known, ok := findByStart(handler.Tracker().GetConflicts(doc), *args.Conflict)
		if !ok {
			c.warn(commands.ErrCursorNotInConflict.Error())
			return nil
		}
		inv = commands.FromKnownConflict(known)
	}

	err = handler.Run(ed, cmd, inv)
	if commands.IsWarning(err) {
		c.warn(err.Error())
		return nil
	}
	return err
}

// findByStart maps a lens argument back to a conflict of the current text.
func findByStart(conflicts []markers.Conflict, start markers.Position) (markers.Conflict, bool) {
	for _, c := range conflicts {
		if c.Range.Start == start {
			return c, true
		}
	}
	return markers.Conflict{}, false
}

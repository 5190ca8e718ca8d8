package server

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/sprat/compiler"
	"github.com/chazu/sprat/vm"

	_ "github.com/tliron/commonlog/simple"
)

const lspName = "sprat-lsp"

var lspLog = commonlog.GetLogger("sprat.lsp")

var lspKeywords = []string{
	"class", "interface", "extend", "define", "import", "let", "raise",
	"self", "nil", "true", "false",
}

// LspServer bridges editor features to a Sprat VM via a VMWorker. The VM
// holds the program the editor works against; open documents are checked
// in scratch VMs so that editing never changes the program.
type LspServer struct {
	worker *VMWorker

	mu   sync.Mutex
	docs map[string]string // URI -> full text

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// NewLSP creates an LSP server over v.
func NewLSP(v *vm.VM) *LspServer {
	s := &LspServer{
		worker:  NewVMWorker(v),
		docs:    make(map[string]string),
		version: "0.1.0",
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
		TextDocumentDefinition: s.textDocumentDefinition,
	}
	s.server = glspserver.NewServer(&s.handler, lspName, false)
	return s
}

// Run serves LSP on stdio until the client disconnects.
func (s *LspServer) Run() error {
	return s.server.RunStdio()
}

// --- Lifecycle ---

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	lspLog.Info("initializing")

	capabilities := s.handler.CreateServerCapabilities()
	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{".", ":"},
	}
	capabilities.HoverProvider = true
	capabilities.DefinitionProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	s.worker.Stop()
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	s.setDoc(uri, params.TextDocument.Text)
	s.publishDiagnostics(ctx, uri, params.TextDocument.Text)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) == 0 {
		return nil
	}
	// Full sync: the last change holds the whole text.
	last := params.ContentChanges[len(params.ContentChanges)-1]
	if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
		s.setDoc(params.TextDocument.URI, whole.Text)
		s.publishDiagnostics(ctx, params.TextDocument.URI, whole.Text)
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (s *LspServer) setDoc(uri protocol.DocumentUri, text string) {
	s.mu.Lock()
	s.docs[string(uri)] = text
	s.mu.Unlock()
}

func (s *LspServer) doc(uri protocol.DocumentUri) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.docs[string(uri)]
	return text, ok
}

// --- Language features ---

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	text, ok := s.doc(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	prefix := extractPrefix(text, params.Position)
	if prefix == "" {
		return nil, nil
	}
	result, err := s.worker.Do(context.Background(), func(v *vm.VM) (any, error) {
		return complete(v, documentVM(text), prefix), nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	text, ok := s.doc(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	word := extractWord(text, params.Position)
	if word == "" {
		return nil, nil
	}
	result, err := s.worker.Do(context.Background(), func(v *vm.VM) (any, error) {
		return hover(v, documentVM(text), text, word), nil
	})
	if err != nil || result == nil {
		return nil, nil
	}
	h, _ := result.(*protocol.Hover)
	return h, nil
}

func (s *LspServer) textDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	uri := params.TextDocument.URI
	text, ok := s.doc(uri)
	if !ok {
		return nil, nil
	}
	word := extractWord(text, params.Position)
	if word == "" {
		return nil, nil
	}
	locations := definitions(uri, text, word)
	if len(locations) == 0 {
		return nil, nil
	}
	return locations, nil
}

// --- Analysis ---

// documentVM returns a scratch VM holding the document's class
// definitions.
func documentVM(text string) *vm.VM {
	scratch := vm.NewVM()
	scratch.CheckDefinitions("", text)
	return scratch
}

// lookupClass finds name in the document first, then the program.
func lookupClass(program, doc *vm.VM, name string) (*vm.Class, bool) {
	if c, ok := doc.LookupClass(name); ok {
		return c, true
	}
	return program.LookupClass(name)
}

func complete(program, doc *vm.VM, prefix string) []protocol.CompletionItem {
	lower := strings.ToLower(prefix)
	seen := make(map[string]bool)
	var items []protocol.CompletionItem
	add := func(label string, kind protocol.CompletionItemKind, detail string) {
		if seen[label] || !strings.HasPrefix(strings.ToLower(label), lower) {
			return
		}
		seen[label] = true
		items = append(items, protocol.CompletionItem{
			Label:      label,
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &label,
		})
	}

	for _, v := range []*vm.VM{doc, program} {
		for _, c := range v.Classes() {
			detail := "class"
			if c.Interface {
				detail = "interface"
			}
			add(c.Name, protocol.CompletionItemKindClass, detail)
		}
	}
	for _, name := range program.VisibleNames(program.TopLevel()) {
		add(name, protocol.CompletionItemKindVariable, "global")
	}
	for _, v := range []*vm.VM{doc, program} {
		for _, c := range v.Classes() {
			for _, sel := range c.Instance.AllSelectors() {
				add(sel, protocol.CompletionItemKindMethod, c.Name)
			}
			for _, sel := range c.Meta.Selectors() {
				add(sel, protocol.CompletionItemKindFunction, c.Name+" class")
			}
		}
	}
	for _, kw := range lspKeywords {
		add(kw, protocol.CompletionItemKindKeyword, "keyword")
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].Label < items[j].Label })
	const maxItems = 100
	if len(items) > maxItems {
		items = items[:maxItems]
	}
	return items
}

func hover(program, doc *vm.VM, text, word string) *protocol.Hover {
	if unicode.IsUpper(rune(word[0])) {
		c, ok := lookupClass(program, doc, word)
		if !ok {
			return nil
		}
		return markdown(describeClass(c))
	}

	// A selector: list implementors from both the document and the program.
	var implementors []string
	for _, v := range []*vm.VM{doc, program} {
		for _, c := range v.Classes() {
			for _, sel := range []string{word, word + ":"} {
				if c.Instance.Defines(sel) {
					implementors = append(implementors, c.Name+">>"+sel)
				}
				if c.Meta.Defines(sel) && isUserClassMethod(sel) {
					implementors = append(implementors, c.Name+" class>>"+sel)
				}
			}
		}
	}
	if len(implementors) == 0 {
		return nil
	}
	sort.Strings(implementors)
	implementors = dedupe(implementors)

	var b strings.Builder
	fmt.Fprintf(&b, "**#%s**\n\nImplemented by:\n", word)
	for _, name := range implementors {
		fmt.Fprintf(&b, "- %s\n", name)
	}
	if d := methodDoc(text, word); d != "" {
		fmt.Fprintf(&b, "\n---\n\n%s\n", d)
	}
	return markdown(b.String())
}

// methodDoc returns the docstring of the first method in text whose
// selector matches word.
func methodDoc(text, word string) string {
	nodes, _ := compiler.Parse(text)
	for _, n := range nodes {
		def, ok := n.(*compiler.ClassDef)
		if !ok {
			continue
		}
		for _, group := range [][]*compiler.MethodDef{def.Methods, def.ClassMethods} {
			for _, m := range group {
				if selectorMatches(m.Selector, word) && m.Doc != "" {
					return m.Doc
				}
			}
		}
	}
	return ""
}

func selectorMatches(selector, word string) bool {
	return selector == word || strings.HasPrefix(selector, word+":")
}

// isUserClassMethod excludes the reflection methods every class has.
func isUserClassMethod(sel string) bool {
	switch sel {
	case "name", "doc", "isInterface", "slotNames", "selectors", "classSelectors",
		"interfaces", "isInstance:", "implements:":
		return false
	}
	return true
}

func describeClass(c *vm.Class) string {
	var b strings.Builder
	kind := "class"
	if c.Interface {
		kind = "interface"
	}
	fmt.Fprintf(&b, "**%s** %s", kind, c.Name)
	if ifaces := c.Instance.Interfaces(); len(ifaces) > 0 {
		fmt.Fprintf(&b, " is: %s", strings.Join(ifaces, ", "))
	}
	b.WriteString("\n\n")
	if c.Doc != "" {
		b.WriteString("---\n\n")
		b.WriteString(c.Doc)
		b.WriteString("\n\n")
	}
	if slots := c.Instance.SlotNames(); len(slots) > 0 {
		fmt.Fprintf(&b, "Slots: `%s`\n\n", strings.Join(slots, " "))
	}
	if len(c.Required) > 0 {
		fmt.Fprintf(&b, "Requires: `%s`\n\n", strings.Join(c.Required, " "))
	}
	fmt.Fprintf(&b, "%d instance methods", len(c.Instance.Selectors()))
	return b.String()
}

func markdown(text string) *protocol.Hover {
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: text,
		},
	}
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || s != sorted[i-1] {
			out = append(out, s)
		}
	}
	return out
}

// definitions finds where word is defined in the document: a class name
// or a method selector.
func definitions(uri protocol.DocumentUri, text, word string) []protocol.Location {
	nodes, _ := compiler.Parse(text)
	var out []protocol.Location
	for _, n := range nodes {
		def, ok := n.(*compiler.ClassDef)
		if !ok {
			continue
		}
		if def.Name == word && def.Kind != compiler.KindExtend {
			out = append(out, protocol.Location{URI: uri, Range: toRange(def.NameSpan)})
		}
		for _, group := range [][]*compiler.MethodDef{def.Methods, def.ClassMethods} {
			for _, m := range group {
				if selectorMatches(m.Selector, word) {
					out = append(out, protocol.Location{URI: uri, Range: toRange(m.SpanVal)})
				}
			}
		}
	}
	return out
}

// --- Diagnostics ---

func (s *LspServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	diagnostics := diagnose(text)
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// diagnose reports syntax errors and class definition errors with the
// ranges they refer to.
func diagnose(text string) []protocol.Diagnostic {
	diagnostics := []protocol.Diagnostic{}
	for _, err := range vm.NewVM().CheckDefinitions("", text) {
		severity := protocol.DiagnosticSeverityError
		source := lspName
		d := protocol.Diagnostic{
			Severity: &severity,
			Source:   &source,
			Message:  err.Error(),
		}
		var u *vm.Unwind
		if errors.As(err, &u) {
			d.Message = u.Message()
			if span, ok := u.Span(); ok {
				d.Range = toRange(span)
			}
		}
		diagnostics = append(diagnostics, d)
	}
	return diagnostics
}

// toRange converts a 1-based span to a 0-based LSP range.
func toRange(span compiler.Span) protocol.Range {
	return protocol.Range{
		Start: toPosition(span.Start),
		End:   toPosition(span.End),
	}
}

func toPosition(p compiler.Position) protocol.Position {
	line, col := p.Line-1, p.Column-1
	if line < 0 {
		line = 0
	}
	if col < 0 {
		col = 0
	}
	return protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(col)}
}

// --- Text extraction ---

// extractPrefix returns the identifier fragment before the cursor.
func extractPrefix(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}
	start := col
	for start > 0 && isWordChar(rune(line[start-1]), true) {
		start--
	}
	return line[start:col]
}

// extractWord returns the whole identifier under the cursor.
func extractWord(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}
	start, end := col, col
	for start > 0 && isWordChar(rune(line[start-1]), false) {
		start--
	}
	for end < len(line) && isWordChar(rune(line[end]), false) {
		end++
	}
	return line[start:end]
}

func isWordChar(ch rune, colon bool) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_' || colon && ch == ':'
}

func boolPtr(b bool) *bool {
	return &b
}

package lsp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dhamidi/gram/cfg"
	"github.com/dhamidi/gram/engine"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// document is an open grammar file and what was learned from its text.
type document struct {
	uri      protocol.DocumentUri
	path     string
	text     string
	grammar  *engine.Grammar
	err      error
	warnings []error
}

// analyze builds the grammar for text. Build errors and reachability
// warnings are kept on the document rather than returned.
func analyze(uri protocol.DocumentUri, path, text string) *document {
	doc := &document{uri: uri, path: path, text: text}
	g, err := engine.FromString(path, text, engine.IsFeatureFile(path), "")
	if err != nil {
		doc.err = err
		return doc
	}
	doc.grammar = g
	doc.warnings = g.Verify()
	return doc
}

// diagnostics converts the document's build error and warnings.
func (d *document) diagnostics() []protocol.Diagnostic {
	out := []protocol.Diagnostic{}
	if d.err != nil {
		out = append(out, diagnostic(d.err, protocol.DiagnosticSeverityError))
	}
	for _, w := range d.warnings {
		out = append(out, diagnostic(w, protocol.DiagnosticSeverityWarning))
	}
	return out
}

func diagnostic(err error, severity protocol.DiagnosticSeverity) protocol.Diagnostic {
	source := lsName
	message := err.Error()
	var pos cfg.Position
	var cerr *cfg.Error
	if errors.As(err, &cerr) {
		pos = cerr.Pos
		message = cerr.Err.Error()
	}
	line := protocol.UInteger(max(pos.Line-1, 0))
	column := protocol.UInteger(max(pos.Column-1, 0))
	return protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: line, Character: column},
			End:   protocol.Position{Line: line + 1, Character: 0},
		},
		Severity: &severity,
		Source:   &source,
		Message:  message,
	}
}

// productions returns the rules for name in grammar notation, with the
// position of the first one.
func (d *document) productions(name string) ([]string, cfg.Position, bool) {
	if d.grammar == nil {
		return nil, cfg.Position{}, false
	}
	var rules []string
	var pos cfg.Position
	if fg := d.grammar.Feature; fg != nil {
		for i, p := range fg.ByLHS(name) {
			if i == 0 {
				pos = p.Pos
			}
			rules = append(rules, p.String())
		}
	} else {
		for i, p := range d.grammar.Plain.ByLHS(name) {
			if i == 0 {
				pos = p.Pos
			}
			rules = append(rules, p.String())
		}
	}
	return rules, pos, len(rules) > 0
}

// hover renders the productions of name as a Markdown code block.
func (d *document) hover(name string) (string, bool) {
	rules, _, ok := d.productions(name)
	if !ok {
		return "", false
	}
	var sb strings.Builder
	sb.WriteString("```\n")
	for _, r := range rules {
		sb.WriteString(r)
		sb.WriteByte('\n')
	}
	sb.WriteString("```\n")
	if name == d.startBase() {
		sb.WriteString("\nstart symbol\n")
	}
	fmt.Fprintf(&sb, "\n%d production(s)", len(rules))
	return sb.String(), true
}

func (d *document) startBase() string {
	if d.grammar == nil {
		return ""
	}
	if fg := d.grammar.Feature; fg != nil {
		return fg.Start.Base
	}
	return d.grammar.Plain.Start
}

// completions offers every nonterminal of the document starting with
// prefix.
func (d *document) completions(prefix string) []protocol.CompletionItem {
	if d.grammar == nil {
		return nil
	}
	kind := protocol.CompletionItemKindClass
	var items []protocol.CompletionItem
	for _, name := range d.grammar.Nonterminals() {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		rules, _, _ := d.productions(name)
		detail := fmt.Sprintf("%d production(s)", len(rules))
		items = append(items, protocol.CompletionItem{
			Label:  name,
			Kind:   &kind,
			Detail: &detail,
		})
	}
	return items
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

// wordAt returns the identifier around the zero-based line and character,
// and the part of it left of the cursor.
func wordAt(text string, line, character int) (word, prefix string) {
	lines := strings.Split(text, "\n")
	if line < 0 || line >= len(lines) {
		return "", ""
	}
	l := strings.TrimSuffix(lines[line], "\r")
	if character > len(l) {
		character = len(l)
	}
	start := character
	for start > 0 && isWordByte(l[start-1]) {
		start--
	}
	end := character
	for end < len(l) && isWordByte(l[end]) {
		end++
	}
	return l[start:end], l[start:character]
}

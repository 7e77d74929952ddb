package lsp

import (
	"strings"
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

const grammarText = `# toy grammar
S -> NP VP
NP -> Det N | 'alice'
VP -> 'runs'
Det -> 'the'
N -> 'dog'
Orphan -> 'x'
`

func TestAnalyze_Diagnostics(t *testing.T) {
	doc := analyze("file:///g.cfg", "/g.cfg", grammarText)
	if doc.err != nil {
		t.Fatalf("unexpected error: %v", doc.err)
	}
	diags := doc.diagnostics()
	if len(diags) != 1 {
		t.Fatalf("got %d diagnostics, want 1: %+v", len(diags), diags)
	}
	d := diags[0]
	if *d.Severity != protocol.DiagnosticSeverityWarning {
		t.Errorf("severity = %v, want warning", *d.Severity)
	}
	if d.Range.Start.Line != 6 || d.Range.Start.Character != 0 {
		t.Errorf("range = %+v, want line 6", d.Range)
	}
	if !strings.Contains(d.Message, "Orphan") {
		t.Errorf("message = %q", d.Message)
	}
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
		text string
		line protocol.UInteger
		want string
	}{
		{"no productions", "/empty.cfg", "# nothing here\n", 0, "no productions"},
		{"terminal lhs", "/bad.fcfg", "S -> 'a'\n'x' -> S\n", 1, "left-hand side"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := analyze("file://"+tt.path, tt.path, tt.text)
			if doc.err == nil {
				t.Fatal("expected an error")
			}
			diags := doc.diagnostics()
			if len(diags) != 1 {
				t.Fatalf("got %+v", diags)
			}
			if *diags[0].Severity != protocol.DiagnosticSeverityError {
				t.Errorf("severity = %v", *diags[0].Severity)
			}
			if diags[0].Range.Start.Line != tt.line {
				t.Errorf("line = %d, want %d", diags[0].Range.Start.Line, tt.line)
			}
			if !strings.Contains(diags[0].Message, tt.want) {
				t.Errorf("message = %q, want it to contain %q", diags[0].Message, tt.want)
			}
			if doc.completions("") != nil {
				t.Error("completions offered for a broken document")
			}
		})
	}
}

func TestDocument_Completions(t *testing.T) {
	doc := analyze("file:///g.cfg", "/g.cfg", grammarText)

	var labels []string
	for _, item := range doc.completions("") {
		labels = append(labels, item.Label)
	}
	if got := strings.Join(labels, " "); got != "S NP VP Det N Orphan" {
		t.Errorf("labels = %q", got)
	}

	items := doc.completions("N")
	if len(items) != 2 || items[0].Label != "NP" || *items[0].Detail != "2 production(s)" {
		t.Errorf("completions(N) = %+v", items)
	}
}

func TestDocument_Hover(t *testing.T) {
	doc := analyze("file:///g.cfg", "/g.cfg", grammarText)

	text, ok := doc.hover("NP")
	if !ok {
		t.Fatal("no hover for NP")
	}
	want := "```\nNP -> Det N\nNP -> 'alice'\n```\n\n2 production(s)"
	if text != want {
		t.Errorf("hover = %q, want %q", text, want)
	}
	if text, _ := doc.hover("S"); !strings.Contains(text, "start symbol") {
		t.Errorf("hover(S) = %q", text)
	}
	if _, ok := doc.hover("alice"); ok {
		t.Error("hover on a terminal")
	}

	fdoc := analyze("file:///f.fcfg", "/f.fcfg", "S -> NP[num=?n] VP[num=?n]\nNP[num=sg] -> 'dog'\nVP[num=sg] -> 'runs'\n")
	if text, ok := fdoc.hover("NP"); !ok || !strings.Contains(text, "NP[num=sg]") {
		t.Errorf("feature hover = %q, %v", text, ok)
	}
}

func TestDocument_Productions(t *testing.T) {
	doc := analyze("file:///g.cfg", "/g.cfg", grammarText)
	rules, pos, ok := doc.productions("VP")
	if !ok || len(rules) != 1 || pos.Line != 4 {
		t.Errorf("productions(VP) = %v, %+v, %v", rules, pos, ok)
	}
}

func TestWordAt(t *testing.T) {
	text := "S -> NP VP\r\nNP_x -> 'a'\n"
	tests := []struct {
		line, char   int
		word, prefix string
	}{
		{0, 0, "S", ""},
		{0, 1, "S", "S"},
		{0, 6, "NP", "N"},
		{0, 10, "VP", "VP"},
		{0, 99, "VP", "VP"},
		{1, 2, "NP_x", "NP"},
		{0, 3, "", ""},
		{5, 0, "", ""},
	}
	for _, tt := range tests {
		word, prefix := wordAt(text, tt.line, tt.char)
		if word != tt.word || prefix != tt.prefix {
			t.Errorf("wordAt(%d, %d) = %q, %q, want %q, %q", tt.line, tt.char, word, prefix, tt.word, tt.prefix)
		}
	}
}

func TestURIToPath(t *testing.T) {
	path, err := uriToPath("file:///tmp/My%20Grammar.cfg")
	if err != nil || path != "/tmp/My Grammar.cfg" {
		t.Errorf("got %q, %v", path, err)
	}
	if path, _ := uriToPath("untitled:1"); path != "untitled:1" {
		t.Errorf("got %q", path)
	}
}

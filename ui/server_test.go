package ui

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dhamidi/gram/config"
	"github.com/dhamidi/gram/format"
)

const scenarioGrammar = `S -> NP VP
NP -> Det N | Name
VP -> V NP
Det -> 'the' | 'a'
N -> 'cat' | 'dog'
V -> 'sees' | 'likes'
Name -> 'alice'
`

const scenarioTree = "(S (NP (Name alice)) (VP (V sees) (NP (Det the) (N dog))))"

func newTestServer(t *testing.T, grammar string) (*Server, string) {
	t.Helper()
	c := config.Default()
	path := ""
	if grammar != "" {
		path = filepath.Join(t.TempDir(), "scenario.cfg")
		if err := os.WriteFile(path, []byte(grammar), 0o644); err != nil {
			t.Fatal(err)
		}
		c.Grammar = path
	}
	s, err := NewServer(c)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

func postJSON(t *testing.T, s *Server, body string) (*httptest.ResponseRecorder, format.Result) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/parse", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var result format.Result
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
			t.Fatalf("decoding %q: %v", rec.Body.String(), err)
		}
	}
	return rec, result
}

func TestParse_JSON(t *testing.T) {
	s, _ := newTestServer(t, scenarioGrammar)

	tests := []struct {
		name string
		body string
		want []string
	}{
		{"text", `{"text": "alice sees the dog."}`, []string{scenarioTree}},
		{"tokens", `{"tokens": ["alice", "sees", "the", "dog"]}`, []string{scenarioTree}},
		{"non-parse", `{"text": "alice meows"}`, []string{}},
		{"descent", `{"text": "alice sees the dog", "algorithm": "descent"}`, []string{scenarioTree}},
		{"start", `{"text": "the cat", "start": "NP"}`, []string{"(NP (Det the) (N cat))"}},
		{"inline grammar", `{"text": "dog runs", "grammar": "S[num=?n] -> NP[num=?n] VP[num=?n]\nNP[num=sg] -> 'dog'\nVP[num=sg] -> 'runs'"}`,
			[]string{"(S[num=sg] (NP[num=sg] dog) (VP[num=sg] runs))"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, result := postJSON(t, s, tt.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
			}
			if strings.Join(result.Brackets, "\n") != strings.Join(tt.want, "\n") {
				t.Errorf("brackets = %v, want %v", result.Brackets, tt.want)
			}
			if len(result.Trees) != len(result.Brackets) {
				t.Errorf("%d trees for %d brackets", len(result.Trees), len(result.Brackets))
			}
		})
	}
}

func TestParse_BadRequests(t *testing.T) {
	s, _ := newTestServer(t, scenarioGrammar)

	for _, body := range []string{
		`{"text": `,
		`{"text": "alice", "algorithm": "cyk"}`,
		`{"text": "alice", "maxTrees": -1}`,
		`{"text": "alice", "algorithm": "feature"}`,
		`{"text": "alice", "grammar": "'x' -> S", "feature": true}`,
	} {
		rec, _ := postJSON(t, s, body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", body, rec.Code)
		}
	}

	empty, _ := newTestServer(t, "")
	rec, _ := postJSON(t, empty, `{"text": "alice"}`)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), ErrNoGrammar.Error()) {
		t.Errorf("no grammar: status %d, body %q", rec.Code, rec.Body.String())
	}
}

func TestParse_Form(t *testing.T) {
	s, _ := newTestServer(t, scenarioGrammar)

	form := url.Values{"text": {"alice sees the dog"}, "maxTrees": {"2"}}
	req := httptest.NewRequest(http.MethodPost, "/parse", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "(Name alice)") || !strings.Contains(body, "chart") {
		t.Errorf("result page lacks the tree:\n%s", body)
	}

	req = httptest.NewRequest(http.MethodPost, "/parse", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Accept: application/json gave Content-Type %q", ct)
	}
}

func TestIndexAndGrammar(t *testing.T) {
	s, path := newTestServer(t, scenarioGrammar)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /: status %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, path) || !strings.Contains(body, "NP -&gt; Det N") {
		t.Errorf("index page lacks the grammar:\n%s", body)
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/grammar", nil))
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Body.String(), "S -> NP VP\n") {
		t.Errorf("GET /grammar: %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /missing: status %d", rec.Code)
	}

	empty, _ := newTestServer(t, "")
	rec = httptest.NewRecorder()
	empty.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/grammar", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /grammar without grammar: status %d", rec.Code)
	}
}

func TestReload_KeepsGrammarOnError(t *testing.T) {
	s, path := newTestServer(t, scenarioGrammar)

	if err := os.WriteFile(path, []byte("# emptied\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Reload(); err == nil {
		t.Fatal("Reload accepted an empty grammar")
	}
	rec, result := postJSON(t, s, `{"text": "alice sees the dog"}`)
	if rec.Code != http.StatusOK || len(result.Brackets) != 1 {
		t.Errorf("old grammar not kept: %d %v", rec.Code, result.Brackets)
	}

	if err := os.WriteFile(path, []byte("S -> 'hello' 'world'\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	_, result = postJSON(t, s, `{"text": "hello world"}`)
	if len(result.Brackets) != 1 || result.Brackets[0] != "(S hello world)" {
		t.Errorf("new grammar not used: %v", result.Brackets)
	}
}

func TestReload_OnFileChange(t *testing.T) {
	s, path := newTestServer(t, scenarioGrammar)

	if err := os.WriteFile(path, []byte("S -> 'hello' 'world'\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if g := s.Grammar(); g != nil && g.Plain.Start == "S" && len(g.Plain.Productions) == 1 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("grammar not reloaded after the file changed")
}

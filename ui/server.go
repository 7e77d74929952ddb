// Package ui serves an HTTP front end for parsing sentences with a grammar.
// A grammar file given in the configuration is reloaded whenever it
// changes on disk.
package ui

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/dhamidi/gram/config"
	"github.com/dhamidi/gram/engine"
	"github.com/dhamidi/gram/format"
	"github.com/dhamidi/gram/tokenize"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("gram.ui")

//go:embed templates
var embeddedFS embed.FS

// ErrNoGrammar is reported when a parse request names no grammar and the
// server has none loaded.
var ErrNoGrammar = errors.New("no grammar")

type Server struct {
	config     config.Config
	mux        *http.ServeMux
	templateFS fs.FS
	funcMap    template.FuncMap
	watcher    *Watcher

	mu      sync.RWMutex
	grammar *engine.Grammar
	loadErr error
}

// ParseRequest is the body of POST /parse. Zero fields fall back to the
// server configuration. Tokens take precedence over Text.
type ParseRequest struct {
	Text      string   `json:"text"`
	Tokens    []string `json:"tokens"`
	Grammar   string   `json:"grammar"`
	Feature   bool     `json:"feature"`
	Algorithm string   `json:"algorithm"`
	MaxTrees  int      `json:"maxTrees"`
	MaxDepth  int      `json:"maxDepth"`
	Start     string   `json:"start"`
}

// NewServer builds the handler. When c.Grammar is set the grammar is
// loaded now and watched for changes until Close.
func NewServer(c config.Config) (*Server, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		config:     c,
		mux:        http.NewServeMux(),
		templateFS: overlayFS("ui/templates", mustSub(embeddedFS, "templates")),
		funcMap: template.FuncMap{
			"join": strings.Join,
		},
	}
	if _, err := template.New("").Funcs(s.funcMap).ParseFS(s.templateFS, "*.html"); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	if c.Grammar != "" {
		if err := s.Reload(); err != nil {
			return nil, err
		}
		w, err := NewWatcher(c.Grammar, func(string) {
			if err := s.Reload(); err != nil {
				log.Errorf("reloading %s: %s", c.Grammar, err)
			}
		})
		if err != nil {
			return nil, err
		}
		s.watcher = w
		w.Start()
	}

	s.mux.HandleFunc("POST /parse", s.handleParse)
	s.mux.HandleFunc("GET /grammar", s.handleGrammar)
	s.mux.HandleFunc("GET /{$}", s.handleIndex)

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Close stops watching the grammar file.
func (s *Server) Close() error {
	if s.watcher != nil {
		s.watcher.Stop()
		s.watcher = nil
	}
	return nil
}

// Reload reads the configured grammar file again. On failure the previous
// grammar stays in use and the error is shown on the index page.
func (s *Server) Reload() error {
	g, err := engine.Load(s.config.Grammar, s.config.Feature, startFor(s.config))
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadErr = err
	if err != nil {
		return err
	}
	s.grammar = g
	log.Infof("loaded %s", s.config.Grammar)
	return nil
}

// startFor returns the start symbol to build a plain grammar with. Feature
// start symbols carry constraints and are applied per parse instead.
func startFor(c config.Config) string {
	if strings.Contains(c.Start, "[") {
		return ""
	}
	return c.Start
}

// Grammar returns the grammar currently in use, or nil.
func (s *Server) Grammar() *engine.Grammar {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.grammar
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, err := template.New("").Funcs(s.funcMap).ParseFS(s.templateFS, "*.html")
	if err != nil {
		http.Error(w, "template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, name, data); err != nil {
		log.Errorf("rendering %s: %s", name, err)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	g, loadErr := s.grammar, s.loadErr
	s.mu.RUnlock()

	data := struct {
		Name       string
		Grammar    string
		LoadError  string
		Algorithms []string
		Algorithm  string
		MaxTrees   int
		Start      string
	}{
		Algorithms: config.Algorithms,
		Algorithm:  s.config.Algorithm,
		MaxTrees:   s.config.MaxTrees,
		Start:      s.config.Start,
	}
	if g != nil {
		data.Name = g.Name
		data.Grammar = g.String()
		if g.IsFeature() {
			data.Algorithm = "feature"
		}
	}
	if loadErr != nil {
		data.LoadError = loadErr.Error()
	}
	s.render(w, "index.html", data)
}

func (s *Server) handleGrammar(w http.ResponseWriter, r *http.Request) {
	g := s.Grammar()
	if g == nil {
		http.Error(w, ErrNoGrammar.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, g.String())
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest

	isJSON := strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
	if isJSON {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form data: "+err.Error(), http.StatusBadRequest)
			return
		}
		req.Text = r.FormValue("text")
		req.Grammar = r.FormValue("grammar")
		req.Feature = r.FormValue("feature") != ""
		req.Algorithm = r.FormValue("algorithm")
		req.Start = r.FormValue("start")
		req.MaxTrees, _ = strconv.Atoi(r.FormValue("maxTrees"))
		req.MaxDepth, _ = strconv.Atoi(r.FormValue("maxDepth"))
	}

	c := s.config
	if req.Algorithm != "" {
		c.Algorithm = req.Algorithm
	}
	if req.MaxTrees != 0 {
		c.MaxTrees = req.MaxTrees
	}
	if req.MaxDepth != 0 {
		c.MaxDepth = req.MaxDepth
	}
	if req.Start != "" {
		c.Start = req.Start
	}
	if err := c.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	g, err := s.grammarFor(req, c)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tokens := req.Tokens
	if len(tokens) == 0 {
		tokens = tokenize.Words(req.Text)
		if c.Lowercase {
			tokens = tokenize.Fold(tokens)
		}
	}

	trees, err := g.Parse(tokens, c)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	result := format.NewResult(trees)
	log.Debugf("parsed %d tokens: %d trees", len(tokens), len(trees))

	if isJSON || strings.Contains(r.Header.Get("Accept"), "application/json") {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
		return
	}

	pretty := make([]string, len(trees))
	for i, n := range trees {
		pretty[i] = n.Pretty()
	}
	s.render(w, "result.html", struct {
		format.Result
		Tokens    []string
		Algorithm string
		Pretty    []string
	}{result, tokens, g.Algorithm(c), pretty})
}

// grammarFor returns the grammar inline in the request, or the loaded one.
func (s *Server) grammarFor(req ParseRequest, c config.Config) (*engine.Grammar, error) {
	if strings.TrimSpace(req.Grammar) != "" {
		return engine.FromString("request", req.Grammar, req.Feature || c.Feature, startFor(c))
	}
	if g := s.Grammar(); g != nil {
		return g, nil
	}
	return nil, ErrNoGrammar
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// overlayFSType serves files from primary when present there, so templates
// can be edited on disk without rebuilding.
type overlayFSType struct {
	primary   fs.FS
	secondary fs.FS
}

func overlayFS(primaryPath string, secondary fs.FS) fs.FS {
	return &overlayFSType{
		primary:   os.DirFS(primaryPath),
		secondary: secondary,
	}
}

func (o *overlayFSType) Open(name string) (fs.File, error) {
	f, err := o.primary.Open(name)
	if err == nil {
		return f, nil
	}
	return o.secondary.Open(name)
}

func (o *overlayFSType) ReadDir(name string) ([]fs.DirEntry, error) {
	entries := make(map[string]fs.DirEntry)

	if rd, ok := o.secondary.(fs.ReadDirFS); ok {
		if list, err := rd.ReadDir(name); err == nil {
			for _, e := range list {
				entries[e.Name()] = e
			}
		}
	}

	if rd, ok := o.primary.(fs.ReadDirFS); ok {
		if list, err := rd.ReadDir(name); err == nil {
			for _, e := range list {
				entries[e.Name()] = e
			}
		}
	}

	result := make([]fs.DirEntry, 0, len(entries))
	for _, e := range entries {
		result = append(result, e)
	}
	return result, nil
}

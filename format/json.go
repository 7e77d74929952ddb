package format

import (
	"encoding/json"
	"io"

	"github.com/dhamidi/gram/tree"
)

// JSONEncoder writes the trees as an indented JSON array. Each element is
// a tree in the form produced by tree.Node.MarshalJSON.
type JSONEncoder struct {
	w     io.Writer
	trees []*tree.Node
}

func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

func (e *JSONEncoder) Encode(trees []*tree.Node) error {
	e.trees = trees
	return write(e.w, e)
}

func (e *JSONEncoder) MarshalText() ([]byte, error) {
	trees := e.trees
	if trees == nil {
		trees = []*tree.Node{}
	}
	data, err := json.MarshalIndent(trees, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Result is the response shape of the HTTP service: the trees and their
// bracketed forms in the same order.
type Result struct {
	Trees    []*tree.Node `json:"trees"`
	Brackets []string     `json:"brackets"`
}

// NewResult pairs every tree with its bracketed form.
func NewResult(trees []*tree.Node) Result {
	r := Result{Trees: trees, Brackets: make([]string, len(trees))}
	if r.Trees == nil {
		r.Trees = []*tree.Node{}
	}
	for i, n := range trees {
		r.Brackets[i] = n.String()
	}
	return r
}

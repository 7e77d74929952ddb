package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/gram/tree"
)

// BracketEncoder writes one bracketed tree per line.
type BracketEncoder struct {
	w     io.Writer
	trees []*tree.Node
}

func NewBracketEncoder(w io.Writer) *BracketEncoder {
	return &BracketEncoder{w: w}
}

func (e *BracketEncoder) Encode(trees []*tree.Node) error {
	e.trees = trees
	return write(e.w, e)
}

func (e *BracketEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	for _, n := range e.trees {
		sb.WriteString(n.String())
		sb.WriteByte('\n')
	}
	return []byte(sb.String()), nil
}

// PrettyEncoder writes each tree indented over several lines, preceded by
// its rank.
type PrettyEncoder struct {
	w     io.Writer
	trees []*tree.Node
}

func NewPrettyEncoder(w io.Writer) *PrettyEncoder {
	return &PrettyEncoder{w: w}
}

func (e *PrettyEncoder) Encode(trees []*tree.Node) error {
	e.trees = trees
	return write(e.w, e)
}

func (e *PrettyEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	for i, n := range e.trees {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "# %d\n%s\n", i+1, n.Pretty())
	}
	return []byte(sb.String()), nil
}

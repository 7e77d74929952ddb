package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/gram/tree"
)

// LineEncoder writes one tab-separated record per tree:
//
//	tree	<rank>	<size>	<depth>	<bracketed tree>
//
// followed by a summary record with the number of trees.
type LineEncoder struct {
	w     io.Writer
	trees []*tree.Node
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

func (e *LineEncoder) Encode(trees []*tree.Node) error {
	e.trees = trees
	return write(e.w, e)
}

func (e *LineEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	for i, n := range e.trees {
		fmt.Fprintf(&sb, "tree\t%d\t%d\t%d\t%s\n",
			i+1,
			n.Size(),
			n.Depth(),
			n.String(),
		)
	}
	fmt.Fprintf(&sb, "total\t%d\n", len(e.trees))
	return []byte(sb.String()), nil
}

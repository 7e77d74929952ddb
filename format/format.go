// Package format writes parse results in the output formats of the CLI
// and the HTTP service.
package format

import (
	"encoding"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/dhamidi/gram/tree"
)

// ErrUnknownFormat is returned by New for a format name it does not know.
var ErrUnknownFormat = errors.New("unknown output format")

type Encoder interface {
	encoding.TextMarshaler
	Encode(trees []*tree.Node) error
}

var encoders = map[string]func(io.Writer) Encoder{
	"bracket": func(w io.Writer) Encoder { return NewBracketEncoder(w) },
	"json":    func(w io.Writer) Encoder { return NewJSONEncoder(w) },
	"pretty":  func(w io.Writer) Encoder { return NewPrettyEncoder(w) },
	"line":    func(w io.Writer) Encoder { return NewLineEncoder(w) },
}

// Names lists the known format names, sorted.
func Names() []string {
	names := make([]string, 0, len(encoders))
	for name := range encoders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New returns the encoder registered under name.
func New(name string, w io.Writer) (Encoder, error) {
	f, ok := encoders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
	return f(w), nil
}

func write(w io.Writer, m encoding.TextMarshaler) error {
	text, err := m.MarshalText()
	if err != nil {
		return err
	}
	_, err = w.Write(text)
	return err
}

// Package config loads parse settings from TOML or YAML files.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/tliron/commonlog"
	"gopkg.in/yaml.v3"
)

var log = commonlog.GetLogger("gram.config")

// Algorithms names the parsers a configuration may select.
var Algorithms = []string{"chart", "earley", "descent", "feature"}

var (
	// ErrUnknownFormat is returned by Load for a file extension that is
	// neither TOML nor YAML.
	ErrUnknownFormat = errors.New("unknown config format")

	// ErrInvalid is wrapped by every Validate failure.
	ErrInvalid = errors.New("invalid config")
)

// Config holds the settings shared by the CLI, the HTTP service and the
// language server. Zero values mean "use the default".
type Config struct {
	Algorithm string `toml:"algorithm" yaml:"algorithm"`
	MaxTrees  int    `toml:"max_trees" yaml:"max_trees"`
	MaxDepth  int    `toml:"max_depth" yaml:"max_depth"`
	Start     string `toml:"start" yaml:"start"`
	Feature   bool   `toml:"feature" yaml:"feature"`
	Lowercase bool   `toml:"lowercase" yaml:"lowercase"`
	Grammar   string `toml:"grammar" yaml:"grammar"`
	Listen    string `toml:"listen" yaml:"listen"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Algorithm: "chart",
		MaxTrees:  8,
		Listen:    "localhost:8080",
	}
}

// Decoder decodes a configuration document.
type Decoder interface {
	Decode(v any) error
}

// DecoderFunc creates a Decoder reading from r.
type DecoderFunc func(r io.Reader) Decoder

var decoders = map[string]DecoderFunc{
	".toml": func(r io.Reader) Decoder { return toml.NewDecoder(r).DisallowUnknownFields() },
	".yaml": yamlDecoder,
	".yml":  yamlDecoder,
}

func yamlDecoder(r io.Reader) Decoder {
	d := yaml.NewDecoder(r)
	d.KnownFields(true)
	return d
}

// Load reads path on top of Default. The format is chosen by extension.
// Relative grammar paths are resolved against the directory of path.
func Load(path string) (Config, error) {
	c := Default()
	f, ok := decoders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return c, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
	if err := open(&c, path, f); err != nil {
		return c, fmt.Errorf("loading %s: %w", path, err)
	}
	if c.Grammar != "" && !filepath.IsAbs(c.Grammar) {
		c.Grammar = filepath.Join(filepath.Dir(path), c.Grammar)
	}
	log.Debugf("loaded %s: algorithm=%s max_trees=%d", path, c.Algorithm, c.MaxTrees)
	return c, c.Validate()
}

func open(v any, path string, f DecoderFunc) error {
	fp, err := os.Open(path)
	if err != nil {
		return err
	}
	defer fp.Close()
	err = f(bufio.NewReader(fp)).Decode(v)
	if errors.Is(err, io.EOF) {
		// an empty YAML document
		return nil
	}
	return err
}

// Validate reports the first setting that no parser accepts.
func (c Config) Validate() error {
	known := false
	for _, a := range Algorithms {
		if c.Algorithm == a {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("%w: algorithm %q is not one of %s", ErrInvalid, c.Algorithm, strings.Join(Algorithms, ", "))
	}
	if c.MaxTrees < 1 {
		return fmt.Errorf("%w: max_trees must be positive, got %d", ErrInvalid, c.MaxTrees)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("%w: max_depth must not be negative, got %d", ErrInvalid, c.MaxDepth)
	}
	return nil
}

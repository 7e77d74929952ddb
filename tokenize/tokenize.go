// Package tokenize splits raw text into the token sequences the parsers
// consume.
package tokenize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	tokenPattern  = regexp.MustCompile(`[\p{L}\p{N}]+(?:'[\p{L}\p{N}]+)?|\S`)
	cliticPattern = regexp.MustCompile(`(?i)^(.+)'(s|m|d|re|ve|ll)$`)
)

// Words splits text into words and single punctuation runes. Negations
// and clitics are split off their host ("don't" becomes "do n't", "he's"
// becomes "he 's"). Tokens without a letter, digit or apostrophe are
// dropped.
func Words(text string) []string {
	var out []string
	for _, tok := range tokenPattern.FindAllString(text, -1) {
		if !strings.ContainsFunc(tok, isWordRune) {
			continue
		}
		lower := strings.ToLower(tok)
		if strings.HasSuffix(lower, "n't") && len(tok) > 3 {
			out = append(out, tok[:len(tok)-3], "n't")
			continue
		}
		if m := cliticPattern.FindStringSubmatch(tok); m != nil {
			out = append(out, m[1], "'"+strings.ToLower(m[2]))
			continue
		}
		out = append(out, tok)
	}
	return out
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\''
}

// Fold lowercases every token into a new slice.
func Fold(tokens []string) []string {
	caser := cases.Lower(language.Und)
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = caser.String(tok)
	}
	return out
}

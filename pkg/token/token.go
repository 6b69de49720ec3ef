package token

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// DefaultPrefix is the placeholder prefix used by idom markup.
const DefaultPrefix = "idom$"

// ErrInvalidPrefix is returned for prefixes that cannot delimit a token.
var ErrInvalidPrefix = errors.New("token: invalid prefix")

// Pattern matches placeholder tokens for a given prefix: the prefix
// immediately followed by one or more word characters.
type Pattern struct {
	prefix string
	re     *regexp.Regexp
}

// NewPattern compiles the token expression for prefix. The prefix must end
// with a non-word character so the key boundary is unambiguous.
func NewPattern(prefix string) (*Pattern, error) {
	if prefix == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidPrefix)
	}
	last := prefix[len(prefix)-1]
	if isWordByte(last) {
		return nil, fmt.Errorf("%w: %q must end with a non-word character", ErrInvalidPrefix, prefix)
	}
	re, err := regexp.Compile(regexp.QuoteMeta(prefix) + `(\w+)`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrefix, err)
	}
	return &Pattern{prefix: prefix, re: re}, nil
}

// MustPattern is NewPattern for constant prefixes.
func MustPattern(prefix string) *Pattern {
	p, err := NewPattern(prefix)
	if err != nil {
		panic(err)
	}
	return p
}

// Prefix returns the literal prefix.
func (p *Pattern) Prefix() string {
	return p.prefix
}

// Contains reports whether s holds at least one token.
func (p *Pattern) Contains(s string) bool {
	return p.re.MatchString(s)
}

// Tokens lists the bare keys in s, in order of first appearance.
func (p *Pattern) Tokens(s string) []string {
	matches := p.re.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		out = append(out, m[1])
	}
	return out
}

func (p *Pattern) replace(s string, fn func(key string) string) string {
	return p.re.ReplaceAllStringFunc(s, func(match string) string {
		return fn(strings.TrimPrefix(match, p.prefix))
	})
}

func isWordByte(b byte) bool {
	return b == '_' || ('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

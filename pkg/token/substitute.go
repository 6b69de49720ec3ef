package token

import (
	"errors"
	"strings"
)

// AddressSeparator joins the parts of a memo key.
const AddressSeparator = "@"

// Address identifies the logical location a substitution writes to. Node and
// Clone are always set; Instance is set for instance markup and instance
// attributes; Attribute is set for attribute-level substitution.
type Address struct {
	Node      string
	Instance  string
	Attribute string
	Clone     string
}

// Key returns the memo key for tokenKey at this address. Empty parts keep
// their slot so addresses of different shapes never collide.
func (a Address) Key(tokenKey string) string {
	return strings.Join([]string{a.Node, a.Instance, a.Attribute, a.Clone, tokenKey}, AddressSeparator)
}

// Memo remembers the last value substituted at a key.
type Memo interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// Option configures a Substituter.
type Option func(*Substituter)

// WithSanitizer passes every string value through s before it is inserted.
func WithSanitizer(s Sanitizer) Option {
	return func(sub *Substituter) {
		sub.sanitizer = s
	}
}

// Substituter replaces tokens in cached markup, memoising values per address.
type Substituter struct {
	pattern   *Pattern
	memo      Memo
	sanitizer Sanitizer
}

// NewSubstituter builds a Substituter. A nil memo gets a fresh MapMemo.
func NewSubstituter(pattern *Pattern, memo Memo, options ...Option) *Substituter {
	if memo == nil {
		memo = NewMapMemo()
	}
	sub := &Substituter{pattern: pattern, memo: memo}
	for _, opt := range options {
		if opt != nil {
			opt(sub)
		}
	}
	return sub
}

// Pattern returns the token pattern in use.
func (s *Substituter) Pattern() *Pattern {
	return s.pattern
}

// Substitute replaces every token in markup. Supplied keys win and are
// memoised; missing keys reuse the memoised value at addr, or become "".
func (s *Substituter) Substitute(markup string, data Data, addr Address) (string, error) {
	if s == nil || s.pattern == nil {
		return "", errors.New("token: substituter not configured")
	}
	if err := data.Validate(s.pattern); err != nil {
		return "", err
	}
	return s.Apply(markup, data, addr), nil
}

// Preview renders markup the way Substitute would without writing to the
// memo.
func (s *Substituter) Preview(markup string, data Data, addr Address) (string, error) {
	if err := data.Validate(s.pattern); err != nil {
		return "", err
	}
	return s.pattern.replace(markup, func(key string) string {
		if value, ok := data[key]; ok {
			return s.format(value)
		}
		if memoised, ok := s.memo.Get(addr.Key(key)); ok {
			return memoised
		}
		return ""
	}), nil
}

// Apply substitutes without validating data. Callers must have run
// data.Validate against the same pattern.
func (s *Substituter) Apply(markup string, data Data, addr Address) string {
	return s.pattern.replace(markup, func(key string) string {
		memoKey := addr.Key(key)
		if value, ok := data[key]; ok {
			formatted := s.format(value)
			s.memo.Set(memoKey, formatted)
			return formatted
		}
		if memoised, ok := s.memo.Get(memoKey); ok {
			return memoised
		}
		return ""
	})
}

func (s *Substituter) format(value any) string {
	formatted := Format(value)
	if s.sanitizer != nil {
		if _, isString := value.(string); isString {
			formatted = s.sanitizer.Sanitize(formatted)
		}
	}
	return formatted
}

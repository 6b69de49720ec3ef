package ident

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Separator delimits provenance segments in the rendered form of an ID.
const Separator = "@"

// Kind names a provenance segment.
type Kind string

const (
	// KindLink marks a copy produced by resolving a linked-node marker.
	KindLink Kind = "link"
	// KindClone marks a copy produced by cloning a populated node.
	KindClone Kind = "clone"
)

// ErrMalformed is returned when a raw identifier does not follow the
// base(@kind@value)* grammar.
var ErrMalformed = errors.New("ident: malformed identifier")

var baseRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Tag is a single provenance segment.
type Tag struct {
	Kind  Kind
	Value string
}

// ID is a node or instance identifier: a base name plus the ordered list of
// link/clone segments that were appended as the element was copied around.
type ID struct {
	Base string
	Tags []Tag
}

// New returns an ID with no provenance.
func New(base string) ID {
	return ID{Base: base}
}

// ValidBase reports whether s can be used as a base name.
func ValidBase(s string) bool {
	return baseRe.MatchString(s)
}

// Base strips every provenance segment from a rendered identifier.
func Base(raw string) string {
	if idx := strings.Index(raw, Separator); idx >= 0 {
		return raw[:idx]
	}
	return raw
}

// Parse reads a rendered identifier.
func Parse(raw string) (ID, error) {
	parts := strings.Split(raw, Separator)
	if !ValidBase(parts[0]) {
		return ID{}, fmt.Errorf("%w: %q: invalid base name", ErrMalformed, raw)
	}
	rest := parts[1:]
	if len(rest)%2 != 0 {
		return ID{}, fmt.Errorf("%w: %q: dangling segment", ErrMalformed, raw)
	}

	id := ID{Base: parts[0]}
	for i := 0; i < len(rest); i += 2 {
		kind := Kind(rest[i])
		if kind != KindLink && kind != KindClone {
			return ID{}, fmt.Errorf("%w: %q: unknown segment %q", ErrMalformed, raw, rest[i])
		}
		if !ValidBase(rest[i+1]) {
			return ID{}, fmt.Errorf("%w: %q: invalid %s value", ErrMalformed, raw, kind)
		}
		id.Tags = append(id.Tags, Tag{Kind: kind, Value: rest[i+1]})
	}
	return id, nil
}

// MustParse is Parse for identifiers known to be well formed.
func MustParse(raw string) ID {
	id, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// String renders the identifier back into its attribute form.
func (id ID) String() string {
	if len(id.Tags) == 0 {
		return id.Base
	}
	var b strings.Builder
	b.WriteString(id.Base)
	for _, tag := range id.Tags {
		b.WriteString(Separator)
		b.WriteString(string(tag.Kind))
		b.WriteString(Separator)
		b.WriteString(tag.Value)
	}
	return b.String()
}

// Suffix returns a copy of the provenance segments.
func (id ID) Suffix() []Tag {
	if len(id.Tags) == 0 {
		return nil
	}
	out := make([]Tag, len(id.Tags))
	copy(out, id.Tags)
	return out
}

// WithSuffix returns id with the given segments appended.
func (id ID) WithSuffix(tags ...Tag) ID {
	out := ID{Base: id.Base, Tags: id.Suffix()}
	out.Tags = append(out.Tags, tags...)
	return out
}

// WithLink returns the identifier a copy of id receives when it is linked
// into the instance host. The host's own provenance follows the link
// segment, so a copy linked into a@clone@c2 stays inside clone c2.
func (id ID) WithLink(host ID) ID {
	tags := append([]Tag{{Kind: KindLink, Value: host.Base}}, host.Tags...)
	return id.WithSuffix(tags...)
}

// WithClone returns the identifier id receives inside clone cloneID.
func (id ID) WithClone(cloneID string) ID {
	return id.WithSuffix(Tag{Kind: KindClone, Value: cloneID})
}

// WithoutClone drops every clone segment.
func (id ID) WithoutClone() ID {
	out := ID{Base: id.Base}
	for _, tag := range id.Tags {
		if tag.Kind == KindClone {
			continue
		}
		out.Tags = append(out.Tags, tag)
	}
	return out
}

// IsLinked reports whether the identifier carries a link segment.
func (id ID) IsLinked() bool {
	return id.has(KindLink)
}

// IsCloned reports whether the identifier carries a clone segment.
func (id ID) IsCloned() bool {
	return id.has(KindClone)
}

// CloneID returns the value of the last clone segment, or "".
func (id ID) CloneID() string {
	for i := len(id.Tags) - 1; i >= 0; i-- {
		if id.Tags[i].Kind == KindClone {
			return id.Tags[i].Value
		}
	}
	return ""
}

// Equal compares base and provenance.
func (id ID) Equal(other ID) bool {
	if id.Base != other.Base || len(id.Tags) != len(other.Tags) {
		return false
	}
	for i := range id.Tags {
		if id.Tags[i] != other.Tags[i] {
			return false
		}
	}
	return true
}

func (id ID) has(kind Kind) bool {
	for _, tag := range id.Tags {
		if tag.Kind == kind {
			return true
		}
	}
	return false
}

// CamelCase turns free text such as "Order line-item" into a base name
// ("orderLineItem"). Characters outside [A-Za-z0-9_] act as word breaks.
func CamelCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return !(r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)))
	})

	var b strings.Builder
	for i, word := range words {
		if i == 0 {
			b.WriteString(strings.ToLower(word[:1]))
		} else {
			b.WriteString(strings.ToUpper(word[:1]))
		}
		b.WriteString(word[1:])
	}
	return b.String()
}

package engine

import (
	"strings"

	"golang.org/x/net/html"
)

// Extension is the seam for third-party DOM libraries that attach their own
// state to elements. The cache pass refuses nodes and prototypes an
// extension is bound to, since cached markup would no longer match the
// live tree.
type Extension interface {
	Name() string
	Bound(n *html.Node) bool
}

// NopExtension is the default: nothing is ever bound.
type NopExtension struct{}

func (NopExtension) Name() string { return "none" }

func (NopExtension) Bound(*html.Node) bool { return false }

// AttrExtension treats an element as bound when it carries an attribute
// whose key starts with Prefix (for example "data-widget-").
type AttrExtension struct {
	Label  string
	Prefix string
}

func (a AttrExtension) Name() string {
	if a.Label != "" {
		return a.Label
	}
	return "attr:" + a.Prefix
}

func (a AttrExtension) Bound(n *html.Node) bool {
	if n == nil || a.Prefix == "" {
		return false
	}
	for _, attr := range n.Attr {
		if strings.HasPrefix(attr.Key, a.Prefix) {
			return true
		}
	}
	return false
}

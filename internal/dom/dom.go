// Package dom wraps golang.org/x/net/html with the small set of tree
// operations the engine needs: attribute access, element traversal, markup
// round-trips and deep copies.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse reads a full HTML document.
func Parse(r io.Reader) (*html.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse document: %w", err)
	}
	return doc, nil
}

// ParseString is Parse for in-memory markup.
func ParseString(markup string) (*html.Node, error) {
	return Parse(strings.NewReader(markup))
}

// Render serialises n and its subtree.
func Render(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", fmt.Errorf("dom: render: %w", err)
	}
	return buf.String(), nil
}

// InnerHTML serialises the children of n.
func InnerHTML(n *html.Node) (string, error) {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("dom: render inner markup: %w", err)
		}
	}
	return buf.String(), nil
}

// ParseFragment parses markup as the content of an element with the given
// tag. The returned nodes are detached.
func ParseFragment(markup, tag string) ([]*html.Node, error) {
	context := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, fmt.Errorf("dom: parse fragment: %w", err)
	}
	return nodes, nil
}

// ReplaceChildren removes every child of n and appends children in order.
func ReplaceChildren(n *html.Node, children []*html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	for _, child := range children {
		Detach(child)
		n.AppendChild(child)
	}
}

// Detach removes n from its parent, if any.
func Detach(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// Clone returns a detached deep copy of n.
func Clone(n *html.Node) *html.Node {
	out := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		out.Attr = make([]html.Attribute, len(n.Attr))
		copy(out.Attr, n.Attr)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out.AppendChild(Clone(c))
	}
	return out
}

// IsElement reports whether n is an element node.
func IsElement(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode
}

// Attr returns the value of an un-namespaced attribute.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

// SetAttr sets or adds an attribute, keeping its position when present.
func SetAttr(n *html.Node, key, value string) {
	for i, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == key {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
}

// RemoveAttr deletes an attribute if present.
func RemoveAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == key {
			continue
		}
		out = append(out, attr)
	}
	n.Attr = out
}

// ElementChildren returns the element children of n in order.
func ElementChildren(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// Walk visits every descendant of n in document order. Returning false from
// fn skips that node's subtree.
func Walk(n *html.Node, fn func(*html.Node) bool) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if fn(c) {
			Walk(c, fn)
		}
		c = next
	}
}

// Comments collects comment nodes under n; deep descends into elements.
func Comments(n *html.Node, deep bool) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.CommentNode {
			out = append(out, c)
		}
		if deep && c.Type == html.ElementNode {
			out = append(out, Comments(c, true)...)
		}
	}
	return out
}

// FindFirst returns the first descendant of root (in document order) that
// satisfies match.
func FindFirst(root *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	Walk(root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if match(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// FindAll returns every descendant of root that satisfies match.
func FindAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	Walk(root, func(n *html.Node) bool {
		if match(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// HasAttr returns a matcher for elements carrying key.
func HasAttr(key string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		if !IsElement(n) {
			return false
		}
		_, ok := Attr(n, key)
		return ok
	}
}

// AttrEquals returns a matcher for elements whose key attribute equals value.
func AttrEquals(key, value string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		if !IsElement(n) {
			return false
		}
		v, ok := Attr(n, key)
		return ok && v == value
	}
}

// Element returns the first element named tag under root.
func Element(root *html.Node, tag string) *html.Node {
	return FindFirst(root, func(n *html.Node) bool {
		return IsElement(n) && n.Data == tag
	})
}

// Path describes where n sits in its tree, e.g. HTML/BODY/DIV[2]/UL[1].
// Detached subtrees start at their root element.
func Path(n *html.Node) string {
	if n == nil {
		return ""
	}
	tag := strings.ToUpper(n.Data)
	switch n.Data {
	case "html", "body":
		return tag
	}
	if n.Parent == nil || n.Parent.Type != html.ElementNode {
		return tag
	}

	index := 1
	for s := n.Parent.FirstChild; s != nil && s != n; s = s.NextSibling {
		if s.Type == html.ElementNode && s.Data == n.Data {
			index++
		}
	}
	return Path(n.Parent) + "/" + tag + "[" + strconv.Itoa(index) + "]"
}

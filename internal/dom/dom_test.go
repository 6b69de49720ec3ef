package dom

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"
)

const page = `<html><head></head><body><div></div><div><ul idom-node-id="list"><li>a</li><!-- note --><li>b</li></ul></div></body></html>`

func mustParse(t *testing.T, markup string) *html.Node {
	t.Helper()
	doc, err := ParseString(markup)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestPath(t *testing.T) {
	doc := mustParse(t, page)
	list := FindFirst(doc, AttrEquals("idom-node-id", "list"))
	if list == nil {
		t.Fatalf("list not found")
	}
	if got := Path(list); got != "BODY/DIV[2]/UL[1]" {
		t.Fatalf("unexpected path %q", got)
	}
	second := ElementChildren(list)[1]
	if got := Path(second); got != "BODY/DIV[2]/UL[1]/LI[2]" {
		t.Fatalf("unexpected path %q", got)
	}
}

func TestCloneIsDeepAndDetached(t *testing.T) {
	doc := mustParse(t, page)
	list := FindFirst(doc, HasAttr("idom-node-id"))
	copyOf := Clone(list)

	if copyOf.Parent != nil {
		t.Fatalf("expected detached copy")
	}
	SetAttr(copyOf, "idom-node-id", "changed")
	if v, _ := Attr(list, "idom-node-id"); v != "list" {
		t.Fatalf("copy shares attributes with source: %q", v)
	}

	want, _ := InnerHTML(list)
	got, _ := InnerHTML(copyOf)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("inner markup mismatch (-want +got):\n%s", diff)
	}
}

func TestCommentsAndChildren(t *testing.T) {
	doc := mustParse(t, page)
	list := FindFirst(doc, HasAttr("idom-node-id"))

	if got := len(ElementChildren(list)); got != 2 {
		t.Fatalf("expected 2 element children, got %d", got)
	}
	if got := len(Comments(list, false)); got != 1 {
		t.Fatalf("expected 1 comment, got %d", got)
	}
	if got := len(Comments(doc, true)); got != 1 {
		t.Fatalf("expected 1 deep comment, got %d", got)
	}
}

func TestParseFragmentAndReplace(t *testing.T) {
	doc := mustParse(t, page)
	list := FindFirst(doc, HasAttr("idom-node-id"))

	nodes, err := ParseFragment(`<li idom-instance-name="x">x</li>`, "ul")
	if err != nil {
		t.Fatalf("fragment: %v", err)
	}
	ReplaceChildren(list, nodes)

	got, _ := InnerHTML(list)
	if got != `<li idom-instance-name="x">x</li>` {
		t.Fatalf("unexpected markup %q", got)
	}
}

func TestAttrHelpers(t *testing.T) {
	n := &html.Node{Type: html.ElementNode, Data: "div"}
	SetAttr(n, "a", "1")
	SetAttr(n, "b", "2")
	SetAttr(n, "a", "3")
	RemoveAttr(n, "b")

	want := []html.Attribute{{Key: "a", Val: "3"}}
	if diff := cmp.Diff(want, n.Attr); diff != "" {
		t.Fatalf("attrs mismatch (-want +got):\n%s", diff)
	}
}

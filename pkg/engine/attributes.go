package engine

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-idom/internal/dom"
	"github.com/goliatone/go-idom/pkg/ident"
	"github.com/goliatone/go-idom/pkg/token"
)

// plainKey strips the attribute prefix: "idom-class" becomes "class".
func (e *Engine) plainKey(key string) (string, bool) {
	if key == e.cfg.NodeAttr || key == e.cfg.InstanceAttr {
		return "", false
	}
	plain, ok := strings.CutPrefix(key, e.cfg.AttrPrefix)
	if !ok || plain == "" {
		return "", false
	}
	return plain, true
}

// populateNodeAttributes fills the node's own prefixed attributes from
// their cached templates and mirrors each onto its plain counterpart.
func (e *Engine) populateNodeAttributes(req populateRequest, memo token.Memo) {
	ref := req.ref
	sub := e.substituter(memo)
	for _, tmpl := range ref.entry.NodeAttrs {
		if tmpl.Namespace != "" {
			continue
		}
		addr := token.Address{Node: ref.key(), Attribute: tmpl.Key, Clone: req.cloneID}
		value := sub.Apply(tmpl.Val, req.data, addr)
		dom.SetAttr(ref.el, tmpl.Key, value)
		if plain, ok := e.plainKey(tmpl.Key); ok {
			dom.SetAttr(ref.el, plain, value)
		}
	}
}

// populateInstanceAttributes memoises the prototype attribute values of
// every instance and mirrors the prefixed attributes onto their plain keys.
// With fill set, the prefixed values are also rewritten from the templates.
func (e *Engine) populateInstanceAttributes(req populateRequest, instances []*html.Node, memo token.Memo, fill bool) {
	ref := req.ref
	sub := e.substituter(memo)
	for _, inst := range instances {
		raw, _ := dom.Attr(inst, e.cfg.InstanceAttr)
		base := ident.Base(raw)
		for _, tmpl := range ref.entry.ProtoAttrs {
			if tmpl.Namespace != "" || tmpl.Key == e.cfg.InstanceAttr {
				continue
			}
			addr := token.Address{Node: ref.key(), Instance: base, Attribute: tmpl.Key, Clone: req.cloneID}
			value := sub.Apply(tmpl.Val, req.data, addr)
			if fill {
				dom.SetAttr(inst, tmpl.Key, value)
			}
			plain, ok := e.plainKey(tmpl.Key)
			if !ok {
				continue
			}
			if value, _ := dom.Attr(inst, tmpl.Key); value != "" {
				dom.SetAttr(inst, plain, value)
			}
		}
	}
}

// mapNestedAttributes copies prefixed attributes below an instance onto
// their plain keys. Empty values are skipped so markup such as
// idom-style="" does not produce a blank style attribute.
func (e *Engine) mapNestedAttributes(instance *html.Node) {
	dom.Walk(instance, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		type pair struct{ key, val string }
		var mapped []pair
		for _, attr := range n.Attr {
			if attr.Namespace != "" || attr.Val == "" {
				continue
			}
			if plain, ok := e.plainKey(attr.Key); ok {
				mapped = append(mapped, pair{plain, attr.Val})
			}
		}
		for _, p := range mapped {
			dom.SetAttr(n, p.key, p.val)
		}
		return true
	})
}

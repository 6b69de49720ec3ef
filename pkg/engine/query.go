package engine

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-idom/internal/dom"
	"github.com/goliatone/go-idom/pkg/ident"
)

// IsPopulated reports whether node holds at least one instance. It has no
// side effects and is cheap enough for loops. A node whose element children
// are not all instances is reported as corrupted.
func (e *Engine) IsPopulated(node *html.Node) (bool, error) {
	ref, err := e.resolve("isPopulated", node)
	if err != nil {
		return false, err
	}
	return e.populated("isPopulated", ref)
}

// IsPopulatedID is IsPopulated for the element carrying nodeID.
func (e *Engine) IsPopulatedID(nodeID string) (bool, error) {
	node, err := e.Node(nodeID)
	if err != nil {
		return false, err
	}
	return e.IsPopulated(node)
}

func (e *Engine) populated(op string, ref nodeRef) (bool, error) {
	children := dom.ElementChildren(ref.el)
	if len(children) == 0 {
		return false, nil
	}
	inner, err := dom.InnerHTML(ref.el)
	if err != nil {
		return false, fail(KindEnvironment, op, ref.el, err)
	}
	if inner == ref.entry.Prototype {
		return false, nil
	}
	for _, child := range children {
		if _, ok := dom.Attr(child, e.cfg.InstanceAttr); !ok {
			return false, fail(KindStructure, op, child, ErrCorrupted)
		}
	}
	return true, nil
}

// Instances lists the instance ids of node in document order.
func (e *Engine) Instances(node *html.Node) ([]ident.ID, error) {
	const op = "instances"
	ref, err := e.resolve(op, node)
	if err != nil {
		return nil, err
	}
	ok, err := e.populated(op, ref)
	if err != nil || !ok {
		return nil, err
	}
	children := dom.ElementChildren(ref.el)
	out := make([]ident.ID, 0, len(children))
	for _, child := range children {
		raw, _ := dom.Attr(child, e.cfg.InstanceAttr)
		id, err := ident.Parse(raw)
		if err != nil {
			return nil, fail(KindStructure, op, child, fmt.Errorf("%w: %v", ErrCorrupted, err))
		}
		out = append(out, id)
	}
	return out, nil
}

// matchInstances returns the instances of ref whose base name is target,
// or every instance when target is empty.
func (e *Engine) matchInstances(ref nodeRef, target string) []*html.Node {
	var out []*html.Node
	for _, child := range dom.ElementChildren(ref.el) {
		raw, ok := dom.Attr(child, e.cfg.InstanceAttr)
		if !ok {
			continue
		}
		if target == "" || ident.Base(raw) == target {
			out = append(out, child)
		}
	}
	return out
}

// DePopulate removes instances. With an empty target the node returns to
// its cached state: virgin prototype and original node attributes. With a
// target, every instance whose base name matches is removed; removing the
// last one restores the virgin prototype.
func (e *Engine) DePopulate(node *html.Node, target string) error {
	const op = "dePopulate"
	ref, err := e.resolve(op, node)
	if err != nil {
		return err
	}

	if target == "" {
		prototype, err := e.prototypeNodes(op, ref)
		if err != nil {
			return err
		}
		attrs := append([]html.Attribute{{Key: e.cfg.NodeAttr, Val: ref.id.String()}}, ref.entry.NodeAttrs...)
		ref.el.Attr = attrs
		dom.ReplaceChildren(ref.el, prototype)
		e.logger.Debug("idom: depopulated", "node", ref.id.String())
		return nil
	}

	if strings.Contains(target, ident.Separator) {
		return failf(KindAddressing, op, ref.el, ErrReservedInSettings, "target %q; pass ident.Base(%q)", target, target)
	}
	ok, err := e.populated(op, ref)
	if err != nil {
		return err
	}
	if !ok {
		return fail(KindAddressing, op, ref.el, ErrNotPopulated)
	}
	matches := e.matchInstances(ref, target)
	if len(matches) == 0 {
		return failf(KindAddressing, op, ref.el, ErrTargetNotFound, "%q", target)
	}

	var prototype []*html.Node
	if len(matches) == len(dom.ElementChildren(ref.el)) {
		if prototype, err = e.prototypeNodes(op, ref); err != nil {
			return err
		}
	}
	for _, m := range matches {
		dom.Detach(m)
	}
	if prototype != nil {
		dom.ReplaceChildren(ref.el, prototype)
	}
	e.logger.Debug("idom: instances removed", "node", ref.id.String(), "target", target, "count", len(matches))
	return nil
}

// DePopulateID is DePopulate for the element carrying nodeID.
func (e *Engine) DePopulateID(nodeID, target string) error {
	node, err := e.Node(nodeID)
	if err != nil {
		return err
	}
	return e.DePopulate(node, target)
}

func (e *Engine) prototypeNodes(op string, ref nodeRef) ([]*html.Node, error) {
	nodes, err := dom.ParseFragment(ref.entry.Prototype, ref.entry.Tag)
	if err != nil {
		return nil, fail(KindEnvironment, op, ref.el, err)
	}
	return nodes, nil
}
